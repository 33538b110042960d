/*
 * script.go, part of goneb.
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

package fidimag

import (
	"io"
	"strconv"
	"strings"
	"text/template"

	neb "github.com/rmera/goneb"
)

//pyFloat writes a float as a Python literal.
func pyFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

//pyInts writes a Python list, or None for an empty slice.
func pyInts(s []int) string {
	if len(s) == 0 {
		return "None"
	}
	str := make([]string, len(s))
	for i, v := range s {
		str[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(str, ", ") + "]"
}

var funcs = template.FuncMap{
	"py":     pyFloat,
	"pybool": pyBool,
	"pyints": pyInts,
	"pystr":  strconv.Quote,
}

const header = `# Written by goneb. It will be overwritten on the next run.
import numpy as np
from fidimag.atomistic import Sim
from fidimag.common import CuboidMesh
from fidimag.atomistic import DMI
from fidimag.atomistic import UniformExchange
from fidimag.atomistic import Zeeman
import fidimag.common.constant as const
{{- if .Band}}
from fidimag.common.nebm_geodesic import NEBM_Geodesic
{{- end}}

mesh = CuboidMesh(nx={{.Mesh.Nx}}, ny={{.Mesh.Ny}}, nz={{.Mesh.Nz}},
                  dx={{py .Mesh.Dx}}, dy={{py .Mesh.Dy}}, dz={{py .Mesh.Dz}},
                  unit_length={{py .Mesh.UnitLength}},
                  periodicity=({{pybool (index .Mesh.Periodic 0)}}, {{pybool (index .Mesh.Periodic 1)}}, {{pybool (index .Mesh.Periodic 2)}})
                  )

sim = Sim(mesh, name={{pystr .Name}})
{{- if .Material.Gamma}}
sim.gamma = {{py .Material.Gamma}}
{{- else}}
sim.gamma = const.gamma
{{- end}}
sim.mu_s = {{py .Material.MuS}} * const.mu_B
sim.add(UniformExchange({{py .Hamiltonian.Exchange}} * const.meV))
sim.add(DMI({{py .Hamiltonian.DMI}} * const.meV, dmi_type={{pystr .Hamiltonian.DMIType}}))
sim.add(Zeeman(({{py (index .Hamiltonian.Field 0)}}, {{py (index .Hamiltonian.Field 1)}}, {{py (index .Hamiltonian.Field 2)}})))
`

const relaxBody = `
sim.set_m(np.load({{pystr .Initial}}))
sim.alpha = {{py .Params.Alpha}}
sim.do_precession = {{pybool .Params.Precession}}
sim.relax(dt={{py .Params.Dt}},
          stopping_dmdt={{py .Params.StoppingDmdt}},
          max_steps={{.Params.MaxSteps}},
          save_m_steps={{.Params.SaveEvery}}, save_vtk_steps={{.Params.SaveEvery}})
`

const bandBody = `
init_images = [np.load(f) for f in [
{{- range $i, $a := .Anchors}}{{if $i}},{{end}}
    {{pystr $a}}
{{- end}}
]]

neb = NEBM_Geodesic(sim,
                    init_images,
                    interpolations={{pyints .Interpolations}},
                    spring_constant={{py .Spring}},
                    name={{pystr .Name}},
                    climbing_image={{pyints .ClimbingImages}}
                    )

neb.relax(max_iterations={{.MaxIterations}},
          save_vtks_every={{.SaveEvery}},
          save_npys_every={{.SaveEvery}},
          stopping_dYdt={{py .StoppingDYdt}}
          )
`

var (
	relaxTemplate = template.Must(template.New("relax").Funcs(funcs).Parse(header + relaxBody))
	bandTemplate  = template.Must(template.New("band").Funcs(funcs).Parse(header + bandBody))
)

//relaxData feeds relaxTemplate. Initial is the path of the initial state, relative to the work directory.
type relaxData struct {
	*neb.RelaxJob
	Band    bool
	Initial string
}

//bandData feeds bandTemplate. Anchors are paths relative to the work directory.
type bandData struct {
	*neb.BandJob
	Band           bool
	Anchors        []string
	Interpolations []int
}

//WriteRelaxScript writes the driver that relaxes job, starting from the
//state stored at initial.
func WriteRelaxScript(w io.Writer, job *neb.RelaxJob, initial string) error {
	return relaxTemplate.Execute(w, relaxData{RelaxJob: job, Initial: initial})
}

//WriteBandScript writes the driver that relaxes the band of job, with the
//anchors stored at the given paths.
func WriteBandScript(w io.Writer, job *neb.BandJob, anchors []string) error {
	return bandTemplate.Execute(w, bandData{BandJob: job, Band: true, Anchors: anchors, Interpolations: job.Chain.Interpolations})
}
