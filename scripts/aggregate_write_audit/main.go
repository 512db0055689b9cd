// Command aggregate_write_audit reports service methods that write to
// composition or membership tables without going through their aggregate.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

func main() {
	strict := flag.Bool("strict", false, "exit non-zero when any residual repo write is found")
	flag.Parse()
	root := "."
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}

	r, err := audit(root)
	if err != nil {
		exitf("%v", err)
	}
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		exitf("marshal report: %v", err)
	}
	fmt.Println(string(out))
	if *strict && r.GuardedRepoWriteCallsites > 0 {
		exitf("%d guarded repo writes bypass the aggregates", r.GuardedRepoWriteCallsites)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
