// Copyright (c) 2024 The treesuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "lazybench.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "lazybench.log"
	defaultWorkload       = "all"
	defaultKeyCount       = 10000
	defaultQueryCount     = 100
	defaultSeed           = 1
)

var (
	defaultHomeDir    = lazybenchHomeDir()
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)

	// knownWorkloads enumerates the workload drivers the harness can run.
	// The "all" pseudo-workload runs every one of them in order.
	knownWorkloads = []string{"reverse", "priority", "sparse",
		"duplicates", "mixed"}
)

// config defines the configuration options for lazybench.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	Keys        int    `short:"n" long:"keys" description:"Number of keys to insert per workload"`
	Queries     int    `short:"q" long:"queries" description:"Number of membership queries to issue per workload"`
	Workload    string `short:"w" long:"workload" description:"Workload to run {reverse, priority, sparse, duplicates, mixed, all}"`
	Seed        int64  `long:"seed" description:"Seed for the pseudo-random number source"`
	Profile     string `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
	CPUProfile  string `long:"cpuprofile" description:"Write CPU profile to the specified file"`
}

// lazybenchHomeDir returns an OS appropriate home directory for lazybench.
func lazybenchHomeDir() string {
	// Search for Windows APPDATA first.  This won't exist on POSIX OSes.
	appData := os.Getenv("APPDATA")
	if appData != "" {
		return filepath.Join(appData, "Lazybench")
	}

	// Fall back to standard HOME directory that works for most POSIX OSes.
	home := os.Getenv("HOME")
	if home != "" {
		return filepath.Join(home, ".lazybench")
	}

	// In the worst case, use the current directory.
	return "."
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(defaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// validWorkload returns whether or not workload is a known workload name.
func validWorkload(workload string) bool {
	if workload == "all" {
		return true
	}
	for _, known := range knownWorkloads {
		if workload == known {
			return true
		}
	}
	return false
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in functioning harness defaults with no further
// configuration needed while still allowing the user to override settings
// with config files and command line options.
func loadConfig() (*config, []string, error) {
	// Default config.
	cfg := config{
		ConfigFile: defaultConfigFile,
		DebugLevel: defaultLogLevel,
		LogDir:     defaultLogDir,
		Keys:       defaultKeyCount,
		Queries:    defaultQueryCount,
		Workload:   defaultWorkload,
		Seed:       defaultSeed,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, version())
		os.Exit(0)
	}

	// Load additional config from file.
	parser := flags.NewParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %v\n",
				err)
			return nil, nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
		}
		return nil, nil, err
	}

	// Initialize log rotation.  After log rotation has been initialized,
	// the logger variables may be used.
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %v", "loadConfig", err.Error())
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	// Validate the workload selection.
	if !validWorkload(cfg.Workload) {
		str := "%s: The specified workload [%v] is invalid -- " +
			"supported workloads %v"
		err := fmt.Errorf(str, "loadConfig", cfg.Workload,
			append(knownWorkloads, "all"))
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	// The workload sizes must be sane.
	if cfg.Keys < 1 {
		str := "%s: The number of keys must be positive -- parsed [%v]"
		err := fmt.Errorf(str, "loadConfig", cfg.Keys)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}
	if cfg.Queries < 0 {
		str := "%s: The number of queries may not be negative -- " +
			"parsed [%v]"
		err := fmt.Errorf(str, "loadConfig", cfg.Queries)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	return &cfg, remainingArgs, nil
}
