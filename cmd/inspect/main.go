// Command inspect dumps raw store keys (and optionally values) from a
// simplist database. Useful for debugging key layout and pagination.
package main

import (
	"flag"
	"fmt"
	"os"

	"simplist/pkg/logger"
	"simplist/pkg/store"
)

func main() {
	var (
		path   = flag.String("db", "", "path to the pebble database")
		prefix = flag.String("prefix", "form:", "key prefix to scan")
		values = flag.Bool("values", false, "print values alongside keys")
	)
	flag.Parse()
	if *path == "" {
		fmt.Fprintln(os.Stderr, "--db required")
		os.Exit(2)
	}
	logger.Init("error")

	st, err := store.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	keys, err := st.Keys(*prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(1)
	}
	for _, k := range keys {
		if !*values {
			fmt.Println(k)
			continue
		}
		v, err := st.GetRaw(k)
		if err != nil {
			fmt.Printf("%s\t<error: %v>\n", k, err)
			continue
		}
		fmt.Printf("%s\t%s\n", k, v)
	}
	fmt.Fprintf(os.Stderr, "%d keys\n", len(keys))
}
