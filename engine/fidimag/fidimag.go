/*
 * fidimag.go, part of goneb.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package fidimag drives the fidimag micromagnetics code. For each job it
//writes the input states as .npy files and a Python driver into the work
//directory, runs the driver, and collects the files fidimag saved.
//fidimag must be installed for the configured Python interpreter.
//Please cite the fidimag references if you use this package.
package fidimag

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	neb "github.com/rmera/goneb"
	"github.com/rmera/goneb/internal/logging"
	"github.com/rmera/goneb/npy"
)

//Handle runs fidimag jobs. It implements neb.Engine.
//Jobs with the same name overwrite each other's files, so two jobs
//running at the same time in the same work directory need different names.
type Handle struct {
	command string
	workdir string
	log     *slog.Logger
}

//NewHandle returns a handle that runs python3 in the current directory.
func NewHandle(log *slog.Logger) *Handle {
	run := new(Handle)
	run.SetDefaults()
	if log != nil {
		run.log = log
	}
	return run
}

//SetDefaults sets the python3 interpreter, the current directory and the default logger.
func (O *Handle) SetDefaults() {
	O.command = "python3"
	O.workdir = "."
	O.log = slog.Default()
}

//Command returns the interpreter used to run the drivers.
func (O *Handle) Command() string { return O.command }

//SetCommand sets the interpreter used to run the drivers.
func (O *Handle) SetCommand(command string) { O.command = command }

//WorkDir returns the directory where inputs and outputs are written.
func (O *Handle) WorkDir() string { return O.workdir }

//SetWorkDir sets the directory where inputs and outputs are written.
func (O *Handle) SetWorkDir(dir string) { O.workdir = dir }

func (O *Handle) path(elem ...string) string {
	return filepath.Join(append([]string{O.workdir}, elem...)...)
}

//BuildRelaxInput writes the initial state and the driver for job. It returns
//the name of the driver, relative to the work directory.
func (O *Handle) BuildRelaxInput(job *neb.RelaxJob) (string, error) {
	if job.Name == "" {
		return "", &Error{ErrCantInput, "", "empty job name", []string{"BuildRelaxInput"}, true, nil}
	}
	if err := job.Mesh.Check(job.Initial); err != nil {
		return "", &Error{ErrCantInput, job.Name, "", []string{"BuildRelaxInput"}, true, err}
	}
	if err := os.MkdirAll(O.workdir, 0755); err != nil {
		return "", &Error{ErrCantInput, job.Name, "", []string{"BuildRelaxInput"}, true, err}
	}
	initial := job.Name + "_initial.npy"
	if err := npy.WriteFile(O.path(initial), job.Initial); err != nil {
		return "", &Error{ErrCantInput, job.Name, "", []string{"npy.WriteFile", "BuildRelaxInput"}, true, err}
	}
	script := job.Name + "_relax.py"
	err := writeScript(O.path(script), func(w *bufio.Writer) error { return WriteRelaxScript(w, job, initial) })
	if err != nil {
		return "", &Error{ErrCantInput, job.Name, "", []string{"BuildRelaxInput"}, true, err}
	}
	return script, nil
}

//BuildBandInput writes the anchors of the chain and the driver for job. It returns
//the name of the driver, relative to the work directory.
func (O *Handle) BuildBandInput(job *neb.BandJob) (string, error) {
	if job.Name == "" {
		return "", &Error{ErrCantInput, "", "empty job name", []string{"BuildBandInput"}, true, nil}
	}
	if job.Chain == nil {
		return "", &Error{ErrCantInput, job.Name, "no image chain", []string{"BuildBandInput"}, true, nil}
	}
	if err := job.Chain.Check(job.Mesh); err != nil {
		return "", &Error{ErrCantInput, job.Name, "", []string{"BuildBandInput"}, true, err}
	}
	if err := neb.CheckClimbing(job.ClimbingImages, job.Chain.Len()); err != nil {
		return "", &Error{ErrCantInput, job.Name, "", []string{"BuildBandInput"}, true, err}
	}
	anchordir := job.Name + "_anchors"
	if err := os.MkdirAll(O.path(anchordir), 0755); err != nil {
		return "", &Error{ErrCantInput, job.Name, "", []string{"BuildBandInput"}, true, err}
	}
	anchors := make([]string, len(job.Chain.Anchors))
	for i, a := range job.Chain.Anchors {
		anchors[i] = filepath.ToSlash(filepath.Join(anchordir, fmt.Sprintf("anchor_%03d.npy", i)))
		if err := npy.WriteFile(O.path(anchors[i]), a); err != nil {
			return "", &Error{ErrCantInput, job.Name, "", []string{"npy.WriteFile", "BuildBandInput"}, true, err}
		}
	}
	script := job.Name + "_neb.py"
	err := writeScript(O.path(script), func(w *bufio.Writer) error { return WriteBandScript(w, job, anchors) })
	if err != nil {
		return "", &Error{ErrCantInput, job.Name, "", []string{"BuildBandInput"}, true, err}
	}
	return script, nil
}

func writeScript(name string, write func(*bufio.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

//Run runs the driver script (relative to the work directory) and waits for it
//to finish. The output of the program goes to <name>.out in the work directory.
//Cancelling ctx kills the program.
func (O *Handle) Run(ctx context.Context, name, script string) error {
	out, err := os.Create(O.path(name + ".out"))
	if err != nil {
		return &Error{ErrNotRunning, name, "", []string{"os.Create", "Run"}, true, err}
	}
	defer out.Close()
	command := exec.CommandContext(ctx, O.command, script)
	command.Dir = O.workdir
	command.Stdout = out
	command.Stderr = out
	O.log.Info("running fidimag", "name", name, "command", O.command, "script", script)
	err = command.Run()
	if O.log.Enabled(ctx, logging.LevelTrace) {
		O.log.Log(ctx, logging.LevelTrace, "fidimag output", "name", name, "tail", tail(O.path(name+".out"), outputTail))
	}
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return &Error{ErrNotRunning, name, "see " + name + ".out", []string{"exec.Run", "Run"}, true, err}
	}
	O.log.Debug("fidimag finished", "name", name)
	return nil
}

//outputTail is the number of lines of the program output logged at trace level.
const outputTail = 20

//tail returns the last n lines of the file name, or an empty string if it can't be read.
func tail(name string, n int) string {
	data, err := os.ReadFile(name)
	if err != nil {
		return ""
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

//Relax relaxes a single state. It implements neb.Engine.
func (O *Handle) Relax(ctx context.Context, job *neb.RelaxJob) (*neb.RelaxResult, error) {
	script, err := O.BuildRelaxInput(job)
	if err != nil {
		return nil, errDecorate(err, "Relax")
	}
	if err := O.Run(ctx, job.Name, script); err != nil {
		return nil, errDecorate(err, "Relax")
	}
	return O.RelaxOutput(job.Name)
}

//RelaxOutput collects the states saved by the relaxation name, <name>_npys/m_<n>.npy.
func (O *Handle) RelaxOutput(name string) (*neb.RelaxResult, error) {
	cps, err := neb.ScanCheckpoints(O.path(name+"_npys"), name, "m_", ".npy")
	if err != nil {
		return nil, &Error{ErrNoOutput, name, "", []string{"RelaxOutput"}, true, err}
	}
	return &neb.RelaxResult{Name: name, Checkpoints: cps}, nil
}

//RelaxBand relaxes an energy band. It implements neb.Engine.
func (O *Handle) RelaxBand(ctx context.Context, job *neb.BandJob) (*neb.BandResult, error) {
	script, err := O.BuildBandInput(job)
	if err != nil {
		return nil, errDecorate(err, "RelaxBand")
	}
	if err := O.Run(ctx, job.Name, script); err != nil {
		return nil, errDecorate(err, "RelaxBand")
	}
	return O.BandOutput(job.Name, job.Chain.Len())
}

//BandOutput collects the files saved by the band relaxation name: the energy and
//distance traces, and the bands saved as npys/<name>_<n>/image_%06d.npy.
func (O *Handle) BandOutput(name string, images int) (*neb.BandResult, error) {
	res := &neb.BandResult{
		Name:         name,
		Images:       images,
		EnergyFile:   O.path(name + "_energy.ndt"),
		DistanceFile: O.path(name + "_dYs.ndt"),
	}
	for _, f := range []string{res.EnergyFile, res.DistanceFile} {
		if _, err := os.Stat(f); err != nil {
			return nil, &Error{ErrNoOutput, name, "", []string{"BandOutput"}, true, err}
		}
	}
	cps, err := neb.ScanCheckpoints(O.path("npys"), name, name+"_", "")
	if err != nil {
		return nil, &Error{ErrNoOutput, name, "", []string{"BandOutput"}, true, err}
	}
	res.Checkpoints = cps
	return res, nil
}

//Errors

//Error is the error type of the package. All Errors match neb.ErrEngine with errors.Is.
type Error struct {
	message   string
	inputname string //the name of the job
	detail    string
	deco      []string
	critical  bool
	cause     error
}

func (err *Error) Error() string {
	msg := fmt.Sprintf("fidimag job %s: %s", err.inputname, err.message)
	if err.detail != "" {
		msg += " (" + err.detail + ")"
	}
	if err.cause != nil {
		msg += ": " + err.cause.Error()
	}
	return msg
}

func (err *Error) Unwrap() []error {
	if err.cause == nil {
		return []error{neb.ErrEngine}
	}
	return []error{neb.ErrEngine, err.cause}
}

//Decorate adds deco to the list of callers and returns the list.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//InputName returns the name of the job that failed.
func (err *Error) InputName() string { return err.inputname }

//Critical returns true if the error is critical, false otherwise
func (err *Error) Critical() bool { return err.critical }

func errDecorate(err error, caller string) error {
	var e *Error
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}

const (
	ErrNotRunning = "fidimag failed to run"
	ErrCantInput  = "can't build fidimag input"
	ErrNoOutput   = "can't find fidimag output"
)
