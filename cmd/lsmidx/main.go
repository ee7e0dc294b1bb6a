// Command lsmidx is a development harness for internal/lsm: it opens an
// index rooted at -dir and runs a single insert/remove/find/flush/dump
// command against it, then exits. It exists for manual poking at the
// on-disk format; it is not part of the library's public surface.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/kurenai-dev/lsmidx/internal/lsm"
)

func main() {
	dir := flag.String("dir", "./lsmidx-data", "data directory for the index")
	help := flag.Bool("help", false, "show help message")
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	index, err := lsm.New(*dir)
	if err != nil {
		log.Fatalf("error opening index at %s: %v", *dir, err)
	}
	defer func() {
		if err := index.Close(); err != nil {
			log.Fatalf("error closing index: %v", err)
		}
	}()

	switch command := args[0]; command {
	case "insert":
		if len(args) != 2 {
			fmt.Println("usage: lsmidx insert <key>")
			os.Exit(1)
		}
		key := parseKey(args[1])
		if err := index.Insert(key); err != nil {
			log.Fatalf("error inserting %d: %v", key, err)
		}
		fmt.Printf("inserted %d\n", key)

	case "remove":
		if len(args) != 2 {
			fmt.Println("usage: lsmidx remove <key>")
			os.Exit(1)
		}
		key := parseKey(args[1])
		if err := index.Remove(key); err != nil {
			log.Fatalf("error removing %d: %v", key, err)
		}
		fmt.Printf("removed %d\n", key)

	case "find":
		if len(args) != 2 {
			fmt.Println("usage: lsmidx find <key>")
			os.Exit(1)
		}
		key := parseKey(args[1])
		found, err := index.Find(key)
		if err != nil {
			log.Fatalf("error finding %d: %v", key, err)
		}
		if found {
			fmt.Printf("%d: present\n", key)
		} else {
			fmt.Printf("%d: absent\n", key)
		}

	case "flush":
		if err := index.Flush(); err != nil {
			log.Fatalf("error flushing: %v", err)
		}
		fmt.Println("flushed")

	case "dump":
		text, err := index.Dump()
		if err != nil {
			log.Fatalf("error dumping: %v", err)
		}
		fmt.Print(text)

	case "help":
		printUsage()

	default:
		fmt.Printf("unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func parseKey(s string) uint64 {
	key, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		log.Fatalf("invalid key %q: must be a non-negative integer: %v", s, err)
	}
	return key
}

func printUsage() {
	fmt.Println("lsmidx - LSM index development harness")
	fmt.Println("")
	fmt.Println("Usage: lsmidx [-dir <path>] <command> [args...]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  insert <key>   insert a key into the index")
	fmt.Println("  remove <key>   remove a key from the index")
	fmt.Println("  find <key>     report whether a key is present")
	fmt.Println("  flush          force the memtable to disk")
	fmt.Println("  dump           print memtable and level contents")
	fmt.Println("  help           show this message")
	fmt.Println("")
	fmt.Println("Flags:")
	fmt.Println("  -dir <path>    data directory (default ./lsmidx-data)")
}
