/*
 * stf.go, part of goneb.
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

package stf

import (
	"bufio"
	"compress/lzw"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	v3 "github.com/rmera/goneb/v3"
)

const (
	lzwLitwidth int = 8
	//DefaultPrec is the number of decimal places kept for each spin component.
	DefaultPrec int = 6
)

//NoEnergy marks an image with unknown energy.
var NoEnergy = math.NaN()

//compression returns the last letter of the extension of name, which selects the compression.
func compression(name string) byte {
	if name == "" {
		return 'f'
	}
	return strings.ToLower(name)[len(name)-1]
}

//Writer writes an stf file.
type Writer struct {
	f         *os.File
	h         io.WriteCloser
	b         *bufio.Writer
	nspins    int
	filename  string
	writeable bool
	prec      int
	mult      float64
	frames    int
}

//NewWriter creates the file name and writes the header, which must contain the
//precision under the key "prec" (DefaultPrec is added otherwise).
//Only the first compression level given is used, and only for gzip and deflate.
func NewWriter(name string, nspins int, header map[string]string, compressionLevel ...int) (*Writer, error) {
	level := gzip.BestCompression
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	if nspins <= 0 {
		return nil, &Error{fmt.Sprintf("invalid number of spins %d", nspins), name, []string{"NewWriter"}, true, nil}
	}
	S := &Writer{nspins: nspins, filename: name, prec: DefaultPrec}
	h := make(map[string]string, len(header)+1)
	for k, v := range header {
		h[k] = v
	}
	if p, ok := h["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec <= 0 {
			return nil, &Error{fmt.Sprintf("invalid precision %q", p), name, []string{"NewWriter"}, true, err}
		}
		S.prec = prec
	}
	h["prec"] = strconv.Itoa(S.prec)
	S.mult = math.Pow(10, float64(S.prec))

	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, &Error{UnableToOpen, name, []string{"NewWriter"}, true, err}
	}
	switch compression(name) {
	case 'l':
		S.h = lzw.NewWriter(S.f, lzw.MSB, lzwLitwidth)
	case 'z':
		S.h, err = gzip.NewWriterLevel(S.f, level)
	case 'r':
		S.h, err = flate.NewWriter(S.f, level)
	default:
		S.h, err = zstd.NewWriter(S.f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
	if err != nil {
		S.f.Close()
		return nil, &Error{"can't set up compression", name, []string{"NewWriter"}, true, err}
	}
	S.b = bufio.NewWriter(S.h)
	S.writeable = true
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.ContainsAny(k, "=\n") || strings.Contains(h[k], "\n") || strings.HasPrefix(k, "*") {
			S.Close()
			return nil, &Error{fmt.Sprintf("invalid header entry %q", k), name, []string{"NewWriter"}, true, nil}
		}
		fmt.Fprintf(S.b, "%s=%s\n", k, h[k])
	}
	fmt.Fprintf(S.b, "** %d\n", S.nspins)
	return S, nil
}

//Len returns the number of spins per frame.
func (S *Writer) Len() int { return S.nspins }

//Frames returns the number of frames written so far.
func (S *Writer) Frames() int { return S.frames }

//WNext writes one image with its energy. Use NoEnergy if the energy is not known.
func (S *Writer) WNext(spins *v3.Matrix, energy float64) error {
	if !S.writeable {
		return &Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true, nil}
	}
	if spins == nil {
		return &Error{NilCoordinates, S.filename, []string{"WNext"}, true, nil}
	}
	if v := spins.NVecs(); v != S.nspins {
		return &Error{fmt.Sprintf("%d spins given, but %d expected", v, S.nspins), S.filename, []string{"WNext"}, true, nil}
	}
	var temp [3]int64
	for i := 0; i < S.nspins; i++ {
		v := spins.Vec(i)
		S.b.WriteString(encode(v, &temp, S.mult))
	}
	var err error
	if math.IsNaN(energy) {
		_, err = S.b.WriteString("*\n")
	} else {
		_, err = S.b.WriteString("* " + strconv.FormatFloat(energy, 'g', -1, 64) + "\n")
	}
	if err != nil {
		return &Error{"can't write frame", S.filename, []string{"WNext"}, true, err}
	}
	S.frames++
	return nil
}

//Close flushes and closes the file. The writer can't be used afterwards.
func (S *Writer) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	var errs []error
	errs = append(errs, S.b.Flush(), S.h.Close(), S.f.Close())
	if err := errors.Join(errs...); err != nil {
		return &Error{"can't close file", S.filename, []string{"Close"}, true, err}
	}
	return nil
}

func encode(f [3]float64, temp *[3]int64, mult float64) string {
	for i, v := range f {
		temp[i] = int64(math.RoundToEven(v * mult))
	}
	return strconv.FormatInt(temp[0], 10) + " " + strconv.FormatInt(temp[1], 10) + " " + strconv.FormatInt(temp[2], 10) + "\n"
}

func decode(str string, temp *[3]float64, mult float64) error {
	s := strings.Fields(str)
	if len(s) != 3 {
		return fmt.Errorf("ill formatted spin line, %d fields: %q", len(s), str)
	}
	for i, v := range s {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("can't parse component %d (%s): %w", i, v, err)
		}
		temp[i] = float64(n) / mult
	}
	return nil
}

//Reader reads an stf file.
type Reader struct {
	f        *os.File
	dec      io.ReadCloser
	h        *bufio.Reader
	nspins   int
	filename string
	prec     int
	mult     float64
	readable bool
}

//zstd.Decoder's Close returns nothing.
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

//New opens an stf file for reading, and returns the handle and the header.
func New(name string) (*Reader, map[string]string, error) {
	S := &Reader{nspins: -1, filename: name}
	var err error
	S.f, err = os.Open(name)
	if err != nil {
		return nil, nil, &Error{UnableToOpen, name, []string{"New"}, true, err}
	}
	in := bufio.NewReader(S.f)
	switch compression(name) {
	case 'l':
		S.dec = lzw.NewReader(in, lzw.MSB, lzwLitwidth)
	case 'z':
		S.dec, err = gzip.NewReader(in)
	case 'r':
		S.dec = flate.NewReader(in)
	default:
		var z *zstd.Decoder
		z, err = zstd.NewReader(in)
		if err == nil {
			S.dec = zstdCloser{z}
		}
	}
	if err != nil {
		S.f.Close()
		return nil, nil, &Error{"can't set up decompression", name, []string{"New"}, true, err}
	}
	S.h = bufio.NewReader(S.dec)
	m := make(map[string]string)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			S.close()
			return nil, nil, &Error{"can't read header", name, []string{"New"}, true, err}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				S.close()
				return nil, nil, &Error{fmt.Sprintf("can't read the number of spins from %q", str), name, []string{"New"}, true, nil}
			}
			S.nspins, err = strconv.Atoi(nat[1])
			if err != nil || S.nspins <= 0 {
				S.close()
				return nil, nil, &Error{fmt.Sprintf("invalid number of spins %q", nat[1]), name, []string{"New"}, true, err}
			}
			break
		}
		k, v, ok := strings.Cut(str, "=")
		if !ok {
			S.close()
			return nil, nil, &Error{fmt.Sprintf("malformed header line %q", str), name, []string{"New"}, true, nil}
		}
		m[k] = v
	}
	S.prec = DefaultPrec
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec <= 0 {
			S.close()
			return nil, nil, &Error{fmt.Sprintf("invalid precision %q", p), name, []string{"New"}, true, err}
		}
		S.prec = prec
	}
	S.mult = math.Pow(10, float64(S.prec))
	S.readable = true
	return S, m, nil
}

//Readable returns true if Next can be called on the handle.
func (S *Reader) Readable() bool { return S.readable }

//Len returns the number of spins per frame.
func (S *Reader) Len() int { return S.nspins }

//Prec returns the precision of the file.
func (S *Reader) Prec() int { return S.prec }

//Next reads the next image into c and returns its energy (NoEnergy if
//none was saved). If c is nil, the frame is checked and discarded.
//At the end of the file, the error returned satisfies errors.Is(err, io.EOF)
//and the handle is closed.
func (S *Reader) Next(c *v3.Matrix) (float64, error) {
	if !S.readable {
		return NoEnergy, &Error{TrajUnIniRead, S.filename, []string{"Next"}, true, nil}
	}
	if c != nil && c.NVecs() != S.nspins {
		return NoEnergy, &Error{fmt.Sprintf("matrix with %d vectors given for %d spins", c.NVecs(), S.nspins), S.filename, []string{"Next"}, true, nil}
	}
	var temp [3]float64
	for i := 0; i < S.nspins; i++ {
		b, err := S.h.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && i == 0 && b == "" {
				S.Close()
				return NoEnergy, newlastFrameError(S.filename, "Next")
			}
			return NoEnergy, &Error{ReadError, S.filename, []string{"Next"}, true, err}
		}
		if strings.HasPrefix(b, "*") {
			return NoEnergy, &Error{fmt.Sprintf("frame ends after %d spins, %d expected", i, S.nspins), S.filename, []string{"Next"}, true, nil}
		}
		if err := decode(b, &temp, S.mult); err != nil {
			return NoEnergy, &Error{WrongFormat, S.filename, []string{"Next"}, true, err}
		}
		if c != nil {
			c.SetVec(i, temp)
		}
	}
	s, err := S.h.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return NoEnergy, &Error{"can't read the frame termination mark", S.filename, []string{"Next"}, true, err}
	}
	fields := strings.Fields(s)
	if len(fields) == 0 || fields[0] != "*" {
		return NoEnergy, &Error{"wrong number of spins in frame", S.filename, []string{"Next"}, true, nil}
	}
	if len(fields) < 2 {
		return NoEnergy, nil
	}
	energy, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return NoEnergy, &Error{"can't parse the frame energy", S.filename, []string{"Next"}, true, err}
	}
	return energy, nil
}

//Close closes the file, and marks the handle as unreadable.
func (S *Reader) Close() {
	if !S.readable {
		return
	}
	S.close()
	S.readable = false
}

func (S *Reader) close() {
	if S.dec != nil {
		S.dec.Close()
	}
	S.f.Close()
}

//WriteChain writes every image of a band, with its energy, to the file name.
//energies can be nil, or have one element per image.
func WriteChain(name string, images []*v3.Matrix, energies []float64, header map[string]string) error {
	if len(images) == 0 {
		return &Error{"no images to write", name, []string{"WriteChain"}, true, nil}
	}
	if energies != nil && len(energies) != len(images) {
		return &Error{fmt.Sprintf("%d energies for %d images", len(energies), len(images)), name, []string{"WriteChain"}, true, nil}
	}
	w, err := NewWriter(name, images[0].NVecs(), header)
	if err != nil {
		return errDecorate(err, "WriteChain")
	}
	for i, im := range images {
		e := NoEnergy
		if energies != nil {
			e = energies[i]
		}
		if err := w.WNext(im, e); err != nil {
			w.Close()
			return errDecorate(err, "WriteChain")
		}
	}
	if err := w.Close(); err != nil {
		return errDecorate(err, "WriteChain")
	}
	return nil
}

//ReadChain reads every image in the file name, with their energies and the header.
func ReadChain(name string) ([]*v3.Matrix, []float64, map[string]string, error) {
	r, header, err := New(name)
	if err != nil {
		return nil, nil, nil, errDecorate(err, "ReadChain")
	}
	defer r.Close()
	var images []*v3.Matrix
	var energies []float64
	for {
		c := v3.Zeros(r.Len())
		e, err := r.Next(c)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, nil, errDecorate(err, "ReadChain")
		}
		images = append(images, c)
		energies = append(energies, e)
	}
	return images, energies, header, nil
}

//Errors

//errDecorate decorates err with the caller's name, if err is one of the errors of this package.
func errDecorate(err error, caller string) error {
	switch e := err.(type) {
	case *Error:
		e.Decorate(caller)
	case *lastFrameError:
		e.Decorate(caller)
	}
	return err
}

//Error is the general structure for stf errors.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
	cause    error
}

func (err *Error) Error() string {
	msg := fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
	if err.cause != nil {
		msg += ": " + err.cause.Error()
	}
	return msg
}

//Decorate adds new information to the error.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func (err *Error) Unwrap() error { return err.cause }

//FileName returns the file to which the failing trajectory was associated
func (err *Error) FileName() string { return err.filename }

//Format returns the format of the file (always "stf") associated to the error
func (err *Error) Format() string { return "stf" }

//Critical returns true if the error is critical, false otherwise
func (err *Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "trajectory not open for reading"
	TrajUnIniWrite = "trajectory not open for writing"
	ReadError      = "error reading frame"
	UnableToOpen   = "unable to open file"
	NilCoordinates = "given nil spins"
	WrongFormat    = "wrong format in the STF file or frame"
)

//lastFrameError signals the normal end of a file.
type lastFrameError struct {
	deco     []string
	fileName string
}

//NormalLastFrameTermination does nothing. It marks the error as the end of the trajectory.
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "stf" }

func (E *lastFrameError) Is(target error) bool { return target == io.EOF }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	return &lastFrameError{fileName: filename, deco: []string{caller}}
}
