// Copyright (c) 2024-2025, The TSCH-JoinSim Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package joinsim_main wires the command line, the console and the
// experiment runner into the joinsim program.
package joinsim_main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/tschsim/joinsim/cli"
	"github.com/tschsim/joinsim/logger"
	"github.com/tschsim/joinsim/progctx"
	"github.com/tschsim/joinsim/runner"
)

type MainArgs struct {
	ConfigFile string
	Trials     int
	Seed       int64
	Workers    int
	Method     string
	Scenario   string
	LogLevel   string
	CsvFile    string
	JsonFile   string
	Batch      bool
}

var (
	args MainArgs
)

func parseArgs() {
	flag.StringVar(&args.ConfigFile, "config", "", "load experiment configuration from a YAML file")
	flag.IntVar(&args.Trials, "trials", 0, "override the number of trials")
	flag.Int64Var(&args.Seed, "seed", 0, "override the experiment seed (0 selects a time-based seed)")
	flag.IntVar(&args.Workers, "workers", 0, "override the worker count (0 selects the number of CPUs)")
	flag.StringVar(&args.Method, "method", "", "override the EB scheduling method")
	flag.StringVar(&args.Scenario, "scenario", "", "override the scenario kind: one-hop, two-hops")
	flag.StringVar(&args.LogLevel, "log", "info", "set logging level: micro, trace, debug, info, note, warn, error, off.")
	flag.StringVar(&args.CsvFile, "csv", "", "save per-trial samples to a semicolon-delimited CSV file")
	flag.StringVar(&args.JsonFile, "json", "", "save summary statistics to a JSON file")
	flag.BoolVar(&args.Batch, "batch", false, "run the experiment once and exit, without the console")

	flag.Parse()
}

func loadConfig() *runner.ExperimentConfig {
	cfg := runner.DefaultExperimentConfig()
	if len(args.ConfigFile) > 0 {
		var err error
		cfg, err = runner.LoadExperimentConfig(args.ConfigFile)
		logger.FatalIfError(err)
	}
	if args.Trials > 0 {
		cfg.Trials = args.Trials
	}
	if args.Seed != 0 {
		cfg.Seed = args.Seed
	}
	if args.Workers > 0 {
		cfg.Workers = args.Workers
	}
	if len(args.Method) > 0 {
		cfg.Schedule.Method = args.Method
	}
	if len(args.Scenario) > 0 {
		cfg.Scenario.Kind = args.Scenario
	}
	logger.FatalIfError(cfg.Validate())
	return cfg
}

func Main(ctx *progctx.ProgCtx, cliOptions *cli.CliOptions) int {
	parseArgs()
	logger.SetLevel(logger.ParseLevel(args.LogLevel))

	handleSignals(ctx)
	cfg := loadConfig()

	if args.Batch {
		return runBatch(ctx, cfg)
	}

	// run the console in the main goroutine
	rt := cli.NewCmdRunner(ctx, cfg)
	err := cli.Run(rt, cliOptions)
	ctx.Cancel(errors.Wrapf(err, "console exit"))
	ctx.Wait()
	if err != nil {
		return 1
	}
	return 0
}

func runBatch(ctx *progctx.ProgCtx, cfg *runner.ExperimentConfig) int {
	res, err := runner.RunExperiment(ctx, cfg)
	if err != nil {
		logger.Errorf("experiment failed: %v", err)
		return 1
	}
	summary := runner.Summarize(res)

	logger.Println("")
	logger.Printf("experiment      %s", summary.Name)
	logger.Printf("seed            %d", summary.Seed)
	logger.Printf("trials          %d", summary.Trials)
	logger.Printf("received        %d (%.1f%%)", summary.Received, summary.SuccessRatio*100)
	logger.Printf("joining time    %.3fs [%.3f, %.3f]", summary.JoiningTime.Mean,
		summary.JoiningTime.CiLow, summary.JoiningTime.CiHigh)
	logger.Printf("formation time  %.3fs [%.3f, %.3f]", summary.FormationTime.Mean,
		summary.FormationTime.CiLow, summary.FormationTime.CiHigh)
	logger.Printf("energy          %.4fJ [%.4f, %.4f]", summary.Energy.Mean,
		summary.Energy.CiLow, summary.Energy.CiHigh)

	if len(args.CsvFile) > 0 {
		logger.FatalIfError(runner.SaveCsv(args.CsvFile, res))
		logger.Infof("saved per-trial samples to %s", args.CsvFile)
	}
	if len(args.JsonFile) > 0 {
		logger.FatalIfError(runner.SaveSummary(args.JsonFile, summary))
		logger.Infof("saved summary to %s", args.JsonFile)
	}
	ctx.Cancel(nil)
	ctx.Wait()
	return 0
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	signal.Ignore(syscall.SIGALRM)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer logger.Debugf("handleSignals exit.")
		defer ctx.WaitDone("handleSignals")

		for {
			select {
			case sig := <-c:
				logger.Infof("signal received: %v", sig)
				ctx.Cancel(nil)
			case <-ctx.Done():
				return
			}
		}
	}()
}
