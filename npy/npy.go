/*
 * npy.go, part of goneb.
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

//Package npy reads and writes spin configurations as NumPy .npy files, in
//the layout the micromagnetics engine uses: a flat float64 array of length
//3N with the components of each spin in consecutive positions.
package npy

import (
	"bufio"
	"fmt"
	"io"
	"os"

	v3 "github.com/rmera/goneb/v3"
	"github.com/sbinet/npyio"
)

//Error is the error type of the package.
type Error struct {
	message  string
	filename string
	deco     []string
	cause    error
}

func (err *Error) Error() string {
	msg := err.message
	if err.filename != "" {
		msg = fmt.Sprintf("%s (file %s)", msg, err.filename)
	}
	if err.cause != nil {
		msg += ": " + err.cause.Error()
	}
	return msg
}

//Decorate adds the name of a caller to the error and returns the list of callers.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func (err *Error) Unwrap() error { return err.cause }

//FileName returns the file the error refers to.
func (err *Error) FileName() string { return err.filename }

//Read reads a spin configuration from r. The array must have
//a multiple of 3 elements.
func Read(r io.Reader) (*v3.Matrix, error) {
	var data []float64
	if err := npyio.Read(r, &data); err != nil {
		return nil, &Error{message: "can't decode npy data", deco: []string{"Read"}, cause: err}
	}
	if len(data) == 0 || len(data)%3 != 0 {
		return nil, &Error{message: fmt.Sprintf("%d elements can't be a spin configuration", len(data)), deco: []string{"Read"}}
	}
	M, err := v3.NewMatrix(data)
	if err != nil {
		return nil, &Error{message: "can't build the matrix", deco: []string{"Read"}, cause: err}
	}
	return M, nil
}

//Write writes M to w as a flat float64 array.
func Write(w io.Writer, M *v3.Matrix) error {
	if err := npyio.Write(w, M.Data()); err != nil {
		return &Error{message: "can't encode npy data", deco: []string{"Write"}, cause: err}
	}
	return nil
}

//ReadFile reads a spin configuration from the .npy file name.
func ReadFile(name string) (*v3.Matrix, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, &Error{message: "can't open file", filename: name, deco: []string{"ReadFile"}, cause: err}
	}
	defer f.Close()
	M, err := Read(bufio.NewReader(f))
	if err != nil {
		err.(*Error).filename = name
		err.(*Error).Decorate("ReadFile")
		return nil, err
	}
	return M, nil
}

//WriteFile writes M to the .npy file name, replacing it if it exists.
func WriteFile(name string, M *v3.Matrix) error {
	f, err := os.Create(name)
	if err != nil {
		return &Error{message: "can't create file", filename: name, deco: []string{"WriteFile"}, cause: err}
	}
	b := bufio.NewWriter(f)
	if err := Write(b, M); err != nil {
		f.Close()
		err.(*Error).filename = name
		err.(*Error).Decorate("WriteFile")
		return err
	}
	if err := b.Flush(); err != nil {
		f.Close()
		return &Error{message: "can't flush file", filename: name, deco: []string{"WriteFile"}, cause: err}
	}
	if err := f.Close(); err != nil {
		return &Error{message: "can't close file", filename: name, deco: []string{"WriteFile"}, cause: err}
	}
	return nil
}

//ImageName returns the name the engine gives to image i of a band.
func ImageName(i int) string {
	return fmt.Sprintf("image_%06d.npy", i)
}
