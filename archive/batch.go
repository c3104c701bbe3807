package archive

import (
	"runtime"
	"sync"

	"github.com/moonlitsea/seentool/seen"
)

// ---------------------------------------------------------------------------
// Batch translation
// ---------------------------------------------------------------------------

// Result is the outcome of translating one archive entry. Exactly one of
// Err or (Data, Text) is meaningful.
type Result struct {
	Index  int
	Name   string
	Data   []byte // extracted script bytes
	Script *seen.Script
	Text   string // disassembly
	Err    error
}

// TranslateAll extracts, decodes and disassembles every entry using a
// worker pool, one task per script. Entries are independent and share only
// the read-only opcode table, so no locking is needed; one entry's failure
// never disturbs its siblings. Results are returned in entry order.
func TranslateAll(a *Archive, tab *seen.Table, workers int) []Result {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]Result, len(a.Entries))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = translateOne(a, tab, i)
			}
		}()
	}
	for i := range a.Entries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func translateOne(a *Archive, tab *seen.Table, i int) Result {
	res := Result{Index: i, Name: a.Entries[i].Name}
	data, err := a.Extract(i)
	if err != nil {
		res.Err = err
		return res
	}
	res.Data = data

	script, err := seen.Decode(data, tab)
	if err != nil {
		res.Err = err
		return res
	}
	res.Script = script
	text, err := seen.Disassemble(script)
	if err != nil {
		res.Err = err
		return res
	}
	res.Text = text
	return res
}
