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

package cli

import (
	"github.com/alecthomas/participle"
)

// noinspection GoStructTag
type Command struct {
	Exit     *ExitCmd     `  @@` //nolint
	Help     *HelpCmd     `| @@` //nolint
	Load     *LoadCmd     `| @@` //nolint
	LogLevel *LogLevelCmd `| @@` //nolint
	Method   *MethodCmd   `| @@` //nolint
	Run      *RunCmd      `| @@` //nolint
	Save     *SaveCmd     `| @@` //nolint
	Scenario *ScenarioCmd `| @@` //nolint
	Seed     *SeedCmd     `| @@` //nolint
	Show     *ShowCmd     `| @@` //nolint
	Stats    *StatsCmd    `| @@` //nolint
	Trials   *TrialsCmd   `| @@` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type LoadCmd struct {
	Cmd  struct{} `"load"`  //nolint
	File string   `@String` //nolint
}

// noinspection GoStructTag
type LogLevelCmd struct {
	Cmd   struct{} `"loglevel"`   //nolint
	Level string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type MethodCmd struct {
	Cmd  struct{} `"method"`                            //nolint
	Name string   `[ @((Ident|Int) (Ident|Int|"-")*) ]` //nolint
}

// noinspection GoStructTag
type RunCmd struct {
	Cmd struct{} `"run"` //nolint
}

// noinspection GoStructTag
type SaveCmd struct {
	Cmd     struct{} `"save"`  //nolint
	Csv     *CsvFlag `( @@`    //nolint
	Summary *SumFlag `| @@ )`  //nolint
	File    string   `@String` //nolint
}

// noinspection GoStructTag
type CsvFlag struct {
	Dummy struct{} `"csv"` //nolint
}

// noinspection GoStructTag
type SumFlag struct {
	Dummy struct{} `"summary"` //nolint
}

// noinspection GoStructTag
type ScenarioCmd struct {
	Cmd    struct{}    `"scenario"`                  //nolint
	Kind   string      `[ @(Ident ( "-" Ident )*) ]` //nolint
	Mobile *MobileFlag `[ @@`                        //nolint
	Static *StaticFlag `| @@ ]`                      //nolint
}

// noinspection GoStructTag
type MobileFlag struct {
	Dummy struct{} `"mobile"` //nolint
}

// noinspection GoStructTag
type StaticFlag struct {
	Dummy struct{} `"static"` //nolint
}

// noinspection GoStructTag
type SeedCmd struct {
	Cmd struct{} `"seed"`     //nolint
	Val *int64   `[ (@Int) ]` //nolint
}

// noinspection GoStructTag
type ShowCmd struct {
	Cmd struct{} `"show"` //nolint
}

// noinspection GoStructTag
type StatsCmd struct {
	Cmd struct{} `"stats"` //nolint
}

// noinspection GoStructTag
type TrialsCmd struct {
	Cmd struct{} `"trials"`   //nolint
	Val *int     `[ (@Int) ]` //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func ParseBytes(b []byte, cmd *Command) error {
	err := commandParser.ParseBytes(b, cmd)
	return err
}
