// Command recdump converts a wire recording into the CSV flat log.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/lao-tseu-is-alive/go-murmurations/pkg/sonify"
)

func main() {
	in := flag.String("in", "", "wire recording to read")
	out := flag.String("out", "", "csv file to write (stdout when empty)")
	quiet := flag.Bool("q", false, "do not print the session summary on stderr")
	flag.Parse()
	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := dump(*in, *out, !*quiet); err != nil {
		log.Fatal(err)
	}
}

func dump(inPath, outPath string, summary bool) error {
	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()
	rec, err := sonify.ReadWire(f)
	if err != nil {
		return fmt.Errorf("%s: %w", inPath, err)
	}

	// hide Close so the recorder leaves stdout open
	var w io.Writer = struct{ io.Writer }{os.Stdout}
	if outPath != "" {
		of, err := os.Create(outPath)
		if err != nil {
			return err
		}
		w = of // closed by the recorder
	}
	if err := convert(rec, w); err != nil {
		return err
	}
	if summary {
		fmt.Fprintf(os.Stderr, "session %s started %s: %d messages\n",
			rec.Session, rec.Started.Format("2006-01-02 15:04:05"), len(rec.Events))
	}
	return nil
}

func convert(rec *sonify.Recording, w io.Writer) error {
	csv := sonify.NewCSVRecorder(w)
	for _, r := range rec.Events {
		csv.Record(r)
	}
	return csv.Close()
}
