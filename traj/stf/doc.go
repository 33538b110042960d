/*
 * doc.go, part of goneb.
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

//Package stf implements the simple trajectory format for spin chains. An stf
//file holds a whole energy band: one frame per image, in order, each with its
//energy. Files are small, and easy to read from other languages.

/******************** Format Specification   ***************************************************

An STF file is compressed. The compression is given by the last letter of the extension:
.stf (zstd, the default), .stz (gzip), .stl (lzw, MSB, literal width 8), .str (raw deflate).

A STF file may only contain ASCII symbols.

A STF file has a "header" starting in the first line, and ending with a line that starts with the
characters "**" followed by one or more spaces, and the number of spins per frame.

Each line of the header must be a pair key=value. The precision (an integer greater than 0,
see below) must be included in the header, with the key "prec", for example:

prec=6

Keys are written in lexical order. If no precision is given, 6 is used.

After the header, the file has one line per spin, per frame. Each line contains 3 integers, the
x, y and z components of the spin multiplied by 10 to the power of the precision, and rounded
to the nearest integer (ties to even).

Each frame ends with a line starting with the character "*", followed by one or more spaces and
the energy of the image, in Joules, as a floating point number. An image with unknown energy
ends with a lone "*".

The "**" sequence may only be used as a header termination.

***************************************************************************************************/

package stf
