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

// Package cli implements the interactive console. It parses and executes
// experiment commands.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tschsim/joinsim/logger"
	"github.com/tschsim/joinsim/runner"
	"github.com/tschsim/joinsim/tsch"
)

const (
	Prompt = "> "
)

type CommandContext struct {
	context.Context
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	data, err := yaml.Marshal(items)
	logger.PanicIfError(err)
	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

// CmdRunner holds the experiment configuration being edited and the results
// of the last run.
type CmdRunner struct {
	ctx     context.Context
	cfg     *runner.ExperimentConfig
	result  *runner.ExperimentResult
	summary *runner.Summary
	exited  bool
	help    Help
}

func NewCmdRunner(ctx context.Context, cfg *runner.ExperimentConfig) *CmdRunner {
	if cfg == nil {
		cfg = runner.DefaultExperimentConfig()
	}
	return &CmdRunner{
		ctx:  ctx,
		cfg:  cfg,
		help: newHelp(),
	}
}

// Config returns the experiment configuration being edited.
func (rt *CmdRunner) Config() *runner.ExperimentConfig {
	return rt.cfg
}

func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	cmd := Command{}
	if err := ParseBytes([]byte(cmdline), &cmd); err != nil {
		if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
			return err
		}
		return nil
	}
	rt.execute(&cmd, output)
	if rt.exited {
		return io.EOF
	}
	return nil
}

func (rt *CmdRunner) GetPrompt() string {
	return Prompt
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Context: rt.ctx,
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Load != nil {
		rt.executeLoad(cc, cmd.Load)
	} else if cmd.Show != nil {
		rt.executeShow(cc)
	} else if cmd.Trials != nil {
		rt.executeTrials(cc, cmd.Trials)
	} else if cmd.Seed != nil {
		rt.executeSeed(cc, cmd.Seed)
	} else if cmd.Method != nil {
		rt.executeMethod(cc, cmd.Method)
	} else if cmd.Scenario != nil {
		rt.executeScenario(cc, cmd.Scenario)
	} else if cmd.Run != nil {
		rt.executeRun(cc)
	} else if cmd.Stats != nil {
		rt.executeStats(cc)
	} else if cmd.Save != nil {
		rt.executeSave(cc, cmd.Save)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Exit != nil {
		rt.exited = true
	} else {
		cc.errorf("unimplemented command: %#v", cmd)
	}
}

func (rt *CmdRunner) executeLoad(cc *CommandContext, cmd *LoadCmd) {
	cfg, err := runner.LoadExperimentConfig(cmd.File)
	if err != nil {
		cc.error(err)
		return
	}
	rt.cfg = cfg
	rt.result = nil
	rt.summary = nil
	cc.outputf("loaded experiment %s\n", cfg.Name)
}

func (rt *CmdRunner) executeShow(cc *CommandContext) {
	cc.outputItemsAsYaml(rt.cfg)
}

func (rt *CmdRunner) executeTrials(cc *CommandContext, cmd *TrialsCmd) {
	if cmd.Val == nil {
		cc.outputf("%d\n", rt.cfg.Trials)
		return
	}
	if *cmd.Val <= 0 {
		cc.errorf("trials must be positive")
		return
	}
	rt.cfg.Trials = *cmd.Val
}

func (rt *CmdRunner) executeSeed(cc *CommandContext, cmd *SeedCmd) {
	if cmd.Val == nil {
		cc.outputf("%d\n", rt.cfg.Seed)
		return
	}
	rt.cfg.Seed = *cmd.Val
}

func (rt *CmdRunner) executeMethod(cc *CommandContext, cmd *MethodCmd) {
	if cmd.Name == "" {
		cc.outputf("%s\n", rt.cfg.Schedule.Method)
		return
	}
	if _, err := tsch.ParseSchedulingMethod(cmd.Name); err != nil {
		cc.error(err)
		return
	}
	rt.cfg.Schedule.Method = cmd.Name
}

func (rt *CmdRunner) executeScenario(cc *CommandContext, cmd *ScenarioCmd) {
	if cmd.Kind == "" {
		cc.outputf("%s\n", rt.cfg.Scenario.Kind)
		return
	}
	if cmd.Kind != "one-hop" && cmd.Kind != "two-hops" {
		cc.errorf("unknown scenario kind %q", cmd.Kind)
		return
	}
	rt.cfg.Scenario.Kind = cmd.Kind
	if cmd.Mobile != nil {
		rt.cfg.Scenario.Mobile = true
	} else if cmd.Static != nil {
		rt.cfg.Scenario.Mobile = false
	}
}

func (rt *CmdRunner) executeRun(cc *CommandContext) {
	res, err := runner.RunExperiment(rt.ctx, rt.cfg)
	if err != nil {
		cc.error(err)
		return
	}
	rt.result = res
	rt.summary = runner.Summarize(res)
	rt.outputSummary(cc)
}

func (rt *CmdRunner) executeStats(cc *CommandContext) {
	if rt.summary == nil {
		cc.errorf("no results yet, use 'run' first")
		return
	}
	rt.outputSummary(cc)
}

func (rt *CmdRunner) outputSummary(cc *CommandContext) {
	s := rt.summary
	cc.outputf("trials        %d\n", s.Trials)
	cc.outputf("received      %d (%.1f%%)\n", s.Received, s.SuccessRatio*100)
	cc.outputf("joining time  %.3fs [%.3f, %.3f]\n", s.JoiningTime.Mean, s.JoiningTime.CiLow, s.JoiningTime.CiHigh)
	cc.outputf("formation     %.3fs [%.3f, %.3f]\n", s.FormationTime.Mean, s.FormationTime.CiLow, s.FormationTime.CiHigh)
	cc.outputf("energy        %.4fJ [%.4f, %.4f]\n", s.Energy.Mean, s.Energy.CiLow, s.Energy.CiHigh)
}

func (rt *CmdRunner) executeSave(cc *CommandContext, cmd *SaveCmd) {
	if rt.result == nil {
		cc.errorf("no results yet, use 'run' first")
		return
	}
	if cmd.Csv != nil {
		cc.error(runner.SaveCsv(cmd.File, rt.result))
	} else {
		cc.error(runner.SaveSummary(cmd.File, rt.summary))
	}
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%s\n", logger.GetLevel())
		return
	}
	logger.SetLevel(logger.ParseLevel(cmd.Level))
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) == 0 {
		cc.outputf("%s", rt.help.outputGeneralHelp())
	} else {
		cc.outputf("%s", rt.help.outputCommandHelp(cmd.HelpTopic))
	}
}
