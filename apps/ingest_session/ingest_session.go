package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"github.com/APTrust/ingest/context"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/service"
	"github.com/APTrust/ingest/util/fileutil"
	"github.com/APTrust/ingest/util/storage"
	"github.com/APTrust/ingest/workers"
	"io/ioutil"
	"os"
)

type options struct {
	configFile  string
	operation   string
	owner       string
	sessionId   string
	name        string
	catalogFile string
}

// ingest_session manages ingest sessions from the command line, the
// same way an API layer would through service.SessionService.
func main() {
	opts := parseCommandLine()
	config, err := models.LoadConfigFile(opts.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, err.Error())
		os.Exit(1)
	}
	_context, err := context.NewContext(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, err.Error())
		os.Exit(1)
	}
	defer _context.Close()

	// Without NSQ, commits run in this process. The runner needs the
	// journal, which ingest_worker must not have open at the same time.
	var dispatcher service.CommitDispatcher
	var runner *workers.CommitRunner
	if config.UseNSQ {
		dispatcher = workers.NewNSQDispatcher(_context)
	} else {
		journal, err := storage.NewBoltDB(config.JournalPath)
		if err != nil {
			exitWithError(err)
		}
		defer journal.Close()
		runner = workers.NewCommitRunner(_context, journal)
		dispatcher = runner
	}
	sessions := service.NewSessionService(_context, dispatcher)

	catalogDocument, err := readCatalogDocument(opts.catalogFile)
	if err != nil {
		exitWithError(err)
	}

	switch opts.operation {
	case "create":
		session, err := sessions.Create(opts.owner, opts.name, catalogDocument)
		printSession(session)
		if err != nil {
			exitWithError(err)
		}
	case "get":
		session, err := sessions.Get(opts.sessionId, opts.owner)
		if err != nil {
			exitWithError(err)
		}
		printSession(session)
	case "list":
		list, err := sessions.List(opts.owner)
		if err != nil {
			exitWithError(err)
		}
		for _, session := range list {
			printSession(session)
		}
	case "update":
		session, err := sessions.Update(opts.sessionId, opts.owner, opts.name, catalogDocument)
		if err != nil {
			exitWithError(err)
		}
		printSession(session)
	case "commit":
		taskReference, err := sessions.Commit(opts.sessionId, opts.owner)
		if err != nil {
			exitWithError(err)
		}
		fmt.Println(taskReference)
		if runner != nil {
			runner.Wait()
			session, err := sessions.Get(opts.sessionId, opts.owner)
			if err != nil {
				exitWithError(err)
			}
			printSession(session)
		}
	case "delete":
		if err := sessions.Delete(opts.sessionId, opts.owner); err != nil {
			exitWithError(err)
		}
		fmt.Println("Deleted", opts.sessionId)
	default:
		printUsage()
		os.Exit(1)
	}
}

func readCatalogDocument(catalogFile string) (json.RawMessage, error) {
	if catalogFile == "" {
		return nil, nil
	}
	path, err := fileutil.ExpandTilde(catalogFile)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot read catalog document %s: %v", path, err)
	}
	return json.RawMessage(data), nil
}

func printSession(session *models.Session) {
	if session == nil {
		return
	}
	data, err := session.ToJson()
	if err != nil {
		exitWithError(err)
	}
	fmt.Println(data)
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "%v\n", err)
	os.Exit(1)
}

func parseCommandLine() *options {
	opts := &options{}
	flag.StringVar(&opts.configFile, "config", "", "Path to ingest config file")
	flag.StringVar(&opts.operation, "op", "", "create, get, list, update, commit or delete")
	flag.StringVar(&opts.owner, "owner", "", "Owner of the session")
	flag.StringVar(&opts.sessionId, "id", "", "Session id")
	flag.StringVar(&opts.name, "name", "", "Session name, for create and update")
	flag.StringVar(&opts.catalogFile, "catalog", "", "Path to a JSON:API catalog document, for create and update")
	flag.Parse()
	if opts.configFile == "" || opts.operation == "" || opts.owner == "" {
		printUsage()
		os.Exit(1)
	}
	if opts.sessionId == "" && opts.operation != "create" && opts.operation != "list" {
		printUsage()
		os.Exit(1)
	}
	return opts
}

// Tell the user about the program.
func printUsage() {
	message := `
ingest_session: Creates, inspects, commits and deletes ingest sessions.

Usage: ingest_session -config=<path to config file> -op=<operation> -owner=<owner> [options]

Operations:
  create -name=<name> [-catalog=<file>]   Create and provision a session
  get -id=<id>                            Print a session
  list                                    Print all of owner's sessions
  update -id=<id> -name=<name> [-catalog=<file>]
  commit -id=<id>                         Start a commit and print its
                                          task reference. If UseNSQ is
                                          false, waits for it to finish.
  delete -id=<id>                         Tear down and remove a session

Params -config, -op and -owner are always required.
`
	fmt.Println(message)
}
