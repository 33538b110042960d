/*
 * errors.go, part of goneb.
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

package neb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoCheckpoint is returned when no saved state matches a series or a naming convention.
	ErrNoCheckpoint = errors.New("no checkpoint found")
	// ErrChainShape is returned for an image chain with a wrong number of anchors or interpolations.
	ErrChainShape = errors.New("malformed image chain")
	// ErrDimension is returned when a spin configuration doesn't match the mesh.
	ErrDimension = errors.New("dimension mismatch between state and mesh")
	// ErrReference is returned for a reference or climbing image index out of range.
	ErrReference = errors.New("image index out of range")
	// ErrEngine is returned when the micromagnetics engine fails.
	ErrEngine = errors.New("engine failure")
	// ErrConfig is returned by Config.Validate.
	ErrConfig = errors.New("invalid configuration")
)

//Error is the general error type of the package. It carries the
//file involved, if any, and the list of functions the error went through.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
	cause    error
}

func newError(cause error, filename, caller, format string, args ...interface{}) *Error {
	return &Error{message: fmt.Sprintf(format, args...), filename: filename, deco: []string{caller}, critical: true, cause: cause}
}

func (err *Error) Error() string {
	var b strings.Builder
	b.WriteString(err.message)
	if err.filename != "" {
		b.WriteString(" (file " + err.filename + ")")
	}
	if err.cause != nil {
		b.WriteString(": " + err.cause.Error())
	}
	return b.String()
}

//Decorate adds deco to the list of callers and returns the list.
//An empty deco just returns the current list.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func (err *Error) Unwrap() error { return err.cause }

//FileName returns the file associated with the error, or an empty string.
func (err *Error) FileName() string { return err.filename }

//Critical returns true if the error is critical, false otherwise
func (err *Error) Critical() bool { return err.critical }

//errDecorate decorates err with caller if it implements Decorator, and returns it.
func errDecorate(err error, caller string) error {
	var d Decorator
	if errors.As(err, &d) {
		d.Decorate(caller)
	}
	return err
}
