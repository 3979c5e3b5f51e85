package main

import (
	"flag"
	"fmt"
	"github.com/APTrust/ingest/context"
	"github.com/APTrust/ingest/models"
	"github.com/APTrust/ingest/util/storage"
	"github.com/APTrust/ingest/workers"
	"os"
)

// ingest_worker runs commit pipelines. It picks up whatever the last
// run left in the commit journal, then reads commit messages from
// NSQ until it gets an interrupt.
func main() {
	pathToConfigFile := parseCommandLine()
	config, err := models.LoadConfigFile(pathToConfigFile)
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

	journal, err := storage.NewBoltDB(config.JournalPath)
	if err != nil {
		_context.MessageLog.Fatalf("Cannot open commit journal %s: %v", config.JournalPath, err)
	}
	defer journal.Close()

	runner := workers.NewCommitRunner(_context, journal)
	recovered, err := runner.Recover()
	if err != nil {
		_context.MessageLog.Fatalf("Cannot recover commit journal: %v", err)
	}
	_context.MessageLog.Info("Recovered %d commits from %s", recovered, journal.FilePath())

	if !config.UseNSQ {
		_context.MessageLog.Info("UseNSQ is false. Finishing recovered commits and exiting.")
		runner.Wait()
		_context.LogStats()
		return
	}

	_context.MessageLog.Info("Connecting to NSQLookupd at %s", config.NsqLookupd)
	_context.MessageLog.Info("NSQDHttpAddress is %s", config.NsqdHttpAddress)
	consumer, err := workers.CreateNsqConsumer(config, &config.CommitWorker)
	if err != nil {
		_context.MessageLog.Fatalf(err.Error())
	}
	_context.MessageLog.Info("ingest_worker started with config %s", config.ActiveConfig)
	_context.MessageLog.Info("Transfer backend is %s, archive mode is %s",
		config.Ingest.TransferBackend, config.ArchiveInterface.Mode)

	consumer.AddHandler(runner)
	if err = consumer.ConnectToNSQLookupd(config.NsqLookupd); err != nil {
		_context.MessageLog.Fatalf(err.Error())
	}

	// This reader blocks until we get an interrupt, so our program does not exit.
	<-consumer.StopChan
	runner.Wait()
	_context.LogStats()
}

func parseCommandLine() (configFile string) {
	var pathToConfigFile string
	flag.StringVar(&pathToConfigFile, "config", "", "Path to ingest config file")
	flag.Parse()
	if pathToConfigFile == "" {
		printUsage()
		os.Exit(1)
	}
	return pathToConfigFile
}

// Tell the user about the program.
func printUsage() {
	message := `
ingest_worker: Commits ingest sessions. Moves staged files into the
archive, publishes session metadata to the catalog and tears down
the session's upload account.

Usage: ingest_worker -config=<absolute path to ingest config file>

Param -config is required.
`
	fmt.Println(message)
}
