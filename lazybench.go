// Copyright (c) 2024 The treesuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime/pprof"
)

// cfg is the loaded harness configuration.  It is set once in
// lazybenchMain and treated as read-only afterward.
var cfg *config

// lazybenchMain is the real main function for lazybench.  It is necessary
// to work around the fact that deferred functions do not run when os.Exit()
// is called.
func lazybenchMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	tcfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = tcfg
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Show version at startup.
	bnchLog.Infof("Version %s", version())

	// Enable http profiling server if requested.
	if cfg.Profile != "" {
		go func() {
			listenAddr := net.JoinHostPort("", cfg.Profile)
			bnchLog.Infof("Profile server listening on %s",
				listenAddr)
			profileRedirect := http.RedirectHandler("/debug/pprof",
				http.StatusSeeOther)
			http.Handle("/", profileRedirect)
			bnchLog.Errorf("%v", http.ListenAndServe(listenAddr, nil))
		}()
	}

	// Write cpu profile if requested.
	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			bnchLog.Errorf("Unable to create cpu profile: %v", err)
			return err
		}
		pprof.StartCPUProfile(f)
		defer f.Close()
		defer pprof.StopCPUProfile()
	}

	// Drive the configured workloads and cross-check every answer.
	if err := runWorkloads(cfg); err != nil {
		bnchLog.Errorf("%v", err)
		return err
	}

	bnchLog.Info("All workloads passed")
	return nil
}

func main() {
	if err := lazybenchMain(); err != nil {
		os.Exit(1)
	}
}
