package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/remeh/sizedwaitgroup"
	"gopkg.in/yaml.v3"

	"github.com/shreyanmitra/tabalchi/parser"
	"github.com/shreyanmitra/tabalchi/registry"
	"github.com/shreyanmitra/tabalchi/render"
	"github.com/shreyanmitra/tabalchi/smf"
	"github.com/shreyanmitra/tabalchi/version"
)

var extensions = []string{"*.tabla", "*.json", "*.yml", "*.yaml"}

func main() {
	safe := flag.Bool("n", false, "Never overwrite files; if file already exists and would be overwritten, give an error.")
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	jsonOut := flag.Bool("json", false, "Output the parsed bol as .bol.json file.")
	yamlOut := flag.Bool("y", false, "Output the parsed bol as .bol.yml file.")
	renderOut := flag.String("r", "", "Output the composition in this notation system (Bhatkhande or Paluskar) as .txt file. Use \"display\" for the notation named in the document.")
	midiOut := flag.Bool("m", false, "Output the composition as .mid file.")
	outPath := flag.String("o", "", "Directory where to write the output files. Created if needed. By default, files are placed in the working directory.")
	defsDir := flag.String("d", "", "Load phrase, taal, jati and speed definitions also from this directory.")
	noUserDefs := flag.Bool("no-user-defs", false, "Do not load the definitions in the user config directory.")
	jobs := flag.Int("j", runtime.NumCPU(), "Number of files parsed in parallel.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	log.SetFlags(0)
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if *jobs < 1 {
		log.Fatalf("-j should be >= 1, got %d", *jobs)
	}
	var opts []registry.Option
	if !*noUserDefs {
		if dir, err := registry.UserDefinitionsDir(); err == nil {
			opts = append(opts, registry.WithUserDefinitions(dir))
		}
	}
	if *defsDir != "" {
		opts = append(opts, registry.WithDefinitionsFS(os.DirFS(*defsDir)))
	}
	reg, err := registry.New(opts...)
	if err != nil {
		log.Fatalf("could not load definitions: %v", err)
	}
	p := parser.New(reg)
	var stdoutMu sync.Mutex
	output := func(filename string, extension string, contents []byte) error {
		if *stdout {
			stdoutMu.Lock()
			defer stdoutMu.Unlock()
			_, err := os.Stdout.Write(contents)
			return err
		}
		dir := *outPath
		if dir == "" {
			var err error
			dir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
			}
		}
		f, err := outputPath(filename, dir, extension)
		if err != nil {
			return err
		}
		original, err := os.ReadFile(f)
		if err == nil {
			if bytes.Equal(original, contents) {
				return nil
			}
			if *safe {
				return fmt.Errorf("file %v would be overwritten", f)
			}
		}
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not create output directory %v: %v", dir, err)
		}
		if err := os.WriteFile(f, contents, 0644); err != nil {
			return fmt.Errorf("could not write file %v: %v", f, err)
		}
		return nil
	}
	var beats atomic.Int64
	process := func(filename string) error {
		res, err := p.ParseFile(filename)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			log.Printf("%v: warning: %v", filename, w)
		}
		c := res.Composition
		beats.Add(int64(c.Bol.Len()))
		if *jsonOut {
			b, err := json.MarshalIndent(c.Bol, "", "  ")
			if err != nil {
				return fmt.Errorf("could not marshal the bol as json: %v", err)
			}
			if err := output(filename, ".bol.json", b); err != nil {
				return fmt.Errorf("error outputting json file: %v", err)
			}
		}
		if *yamlOut {
			b, err := yaml.Marshal(c.Bol)
			if err != nil {
				return fmt.Errorf("could not marshal the bol as yaml: %v", err)
			}
			if err := output(filename, ".bol.yml", b); err != nil {
				return fmt.Errorf("error outputting yaml file: %v", err)
			}
		}
		if *renderOut != "" {
			n := c.Display
			if *renderOut != "display" {
				if n, err = render.Lookup(*renderOut); err != nil {
					return err
				}
			}
			s, err := render.String(n, c)
			if err != nil {
				return err
			}
			if err := output(filename, ".txt", []byte(s)); err != nil {
				return fmt.Errorf("error outputting notation: %v", err)
			}
		}
		if *midiOut {
			opts := smf.DefaultOptions
			opts.Name = c.Name
			var b bytes.Buffer
			if err := smf.Write(&b, c.Bol, opts); err != nil {
				return err
			}
			if err := output(filename, ".mid", b.Bytes()); err != nil {
				return fmt.Errorf("error outputting midi file: %v", err)
			}
		}
		return nil
	}
	var files []string
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			for _, ext := range extensions {
				matches, err := filepath.Glob(filepath.Join(param, ext))
				if err != nil {
					log.Printf("could not glob the path %v for %v files: %v", param, ext, err)
					continue
				}
				files = append(files, matches...)
			}
		} else {
			files = append(files, param)
		}
	}
	start := time.Now()
	var failed atomic.Int32
	swg := sizedwaitgroup.New(*jobs)
	for _, file := range files {
		swg.Add()
		go func(file string) {
			defer swg.Done()
			if err := process(file); err != nil {
				log.Printf("could not process file %v: %v", file, err)
				failed.Add(1)
			}
		}(file)
	}
	swg.Wait()
	log.Printf("parsed %s of %s files (%s beats) in %v", humanize.Comma(int64(len(files)-int(failed.Load()))),
		humanize.Comma(int64(len(files))), humanize.Comma(beats.Load()), durafmt.Parse(time.Since(start)).LimitFirstN(2))
	if failed.Load() > 0 {
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Tabalchi parser. Input .tabla, .json or .yml compositions, outputs the parsed bols (.bol.json, .bol.yml), rendered notation (.txt) or MIDI (.mid).\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}

// outputPath is where the output with the given extension is written for an
// input file. It never names the input file itself.
func outputPath(input, dir, extension string) (string, error) {
	_, name := filepath.Split(input)
	name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
	f := filepath.Join(dir, name)
	absIn, err := filepath.Abs(input)
	if err != nil {
		return "", err
	}
	absOut, err := filepath.Abs(f)
	if err != nil {
		return "", err
	}
	if absIn == absOut {
		return "", fmt.Errorf("output file %v would overwrite the input", f)
	}
	return f, nil
}
