// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparse

import "math"

// hyperPrice is the result density at which row-wise PRICE with switch
// abandons index tracking.
const hyperPrice = 0.10

// Matrix holds the structural constraint matrix column-wise together with
// a row-wise copy partitioned by basis status: within each row the entries
// of nonbasic columns come first, so row-wise PRICE visits only them.
type Matrix struct {
	numCol, numRow int

	start []int
	index []int
	value []float64

	arStart []int
	arEndN  []int
	arIndex []int
	arValue []float64
}

// NewMatrix builds the row-wise copy from the column-wise form. All
// structural columns start nonbasic, matching the logical basis.
func NewMatrix(numCol, numRow int, start, index []int, value []float64) *Matrix {
	m := &Matrix{
		numCol: numCol, numRow: numRow,
		start: start, index: index, value: value,
	}
	numNz := start[numCol]
	m.arStart = make([]int, numRow+1)
	m.arEndN = make([]int, numRow)
	m.arIndex = make([]int, numNz)
	m.arValue = make([]float64, numNz)
	for el := 0; el < numNz; el++ {
		m.arStart[index[el]+1]++
	}
	for i := 0; i < numRow; i++ {
		m.arStart[i+1] += m.arStart[i]
	}
	fill := make([]int, numRow)
	copy(fill, m.arStart[:numRow])
	for j := 0; j < numCol; j++ {
		for el := start[j]; el < start[j+1]; el++ {
			i := index[el]
			m.arIndex[fill[i]] = j
			m.arValue[fill[i]] = value[el]
			fill[i]++
		}
	}
	for i := 0; i < numRow; i++ {
		m.arEndN[i] = m.arStart[i+1]
	}
	return m
}

// NumCol reports the number of structural columns.
func (m *Matrix) NumCol() int { return m.numCol }

// NumRow reports the number of rows.
func (m *Matrix) NumRow() int { return m.numRow }

// Col returns the packed entries of structural column j.
func (m *Matrix) Col(j int) (index []int, value []float64) {
	return m.index[m.start[j]:m.start[j+1]], m.value[m.start[j]:m.start[j+1]]
}

// Update moves variableIn out of the nonbasic partition and variableOut
// into it after a basis change. Logical variables have no structural
// entries and are ignored.
func (m *Matrix) Update(variableIn, variableOut int) {
	if variableIn < m.numCol {
		for el := m.start[variableIn]; el < m.start[variableIn+1]; el++ {
			i := m.index[el]
			m.partitionSwap(i, variableIn, m.arStart[i], m.arEndN[i], m.arEndN[i]-1)
			m.arEndN[i]--
		}
	}
	if variableOut < m.numCol {
		for el := m.start[variableOut]; el < m.start[variableOut+1]; el++ {
			i := m.index[el]
			m.partitionSwap(i, variableOut, m.arEndN[i], m.arStart[i+1], m.arEndN[i])
			m.arEndN[i]++
		}
	}
}

func (m *Matrix) partitionSwap(iRow, iCol, from, to, dest int) {
	for k := from; k < to; k++ {
		if m.arIndex[k] == iCol {
			m.arIndex[k], m.arIndex[dest] = m.arIndex[dest], m.arIndex[k]
			m.arValue[k], m.arValue[dest] = m.arValue[dest], m.arValue[k]
			return
		}
	}
	panic("bound check error")
}

// PriceByColumn computes result = vecᵀA by column-wise PRICE. Components
// for basic columns are computed too: the caller zeroes them through the
// nonbasic flags and repacks.
func (m *Matrix) PriceByColumn(result, vec *Vector) {
	result.Clear()
	for j := 0; j < m.numCol; j++ {
		x := 0.0
		for el := m.start[j]; el < m.start[j+1]; el++ {
			x += vec.Array[m.index[el]] * m.value[el]
		}
		if math.Abs(x) > zeroTolerance {
			result.Set(j, x)
		}
	}
	result.SyntheticTick += float64(m.start[m.numCol])
}

// PriceByRowSparseResult computes result = vecᵀA by row-wise PRICE over
// the nonbasic partition, building the packed result incrementally.
func (m *Matrix) PriceByRowSparseResult(result, vec *Vector) {
	result.Clear()
	for iEl := 0; iEl < vec.Count; iEl++ {
		i := vec.Index[iEl]
		m.priceRow(result, i, vec.Array[i])
	}
	cancelSmall(result)
}

// PriceByRowSparseResultWithSwitch is row-wise PRICE that abandons index
// tracking once the result density passes switchDensity, finishing with a
// dense accumulation and a repack.
func (m *Matrix) PriceByRowSparseResultWithSwitch(result, vec *Vector, switchDensity float64) {
	result.Clear()
	limit := int(switchDensity * float64(m.numCol))
	iEl := 0
	for ; iEl < vec.Count; iEl++ {
		if result.Count > limit {
			break
		}
		i := vec.Index[iEl]
		m.priceRow(result, i, vec.Array[i])
	}
	if iEl < vec.Count {
		// Density too high for index tracking: finish densely
		for ; iEl < vec.Count; iEl++ {
			i := vec.Index[iEl]
			x := vec.Array[i]
			for el := m.arStart[i]; el < m.arEndN[i]; el++ {
				result.Array[m.arIndex[el]] += x * m.arValue[el]
			}
			result.SyntheticTick += float64(m.arEndN[i] - m.arStart[i])
		}
		result.Repack()
		return
	}
	cancelSmall(result)
}

// SwitchDensity is the density bound fed to PRICE with switch.
func (m *Matrix) SwitchDensity() float64 { return hyperPrice }

func (m *Matrix) priceRow(result *Vector, i int, x float64) {
	for el := m.arStart[i]; el < m.arEndN[i]; el++ {
		j := m.arIndex[el]
		was := result.Array[j]
		if was == 0 {
			result.Index[result.Count] = j
			result.Count++
		}
		result.Array[j] = was + x*m.arValue[el]
	}
	result.SyntheticTick += float64(m.arEndN[i] - m.arStart[i])
}

func cancelSmall(result *Vector) {
	count := 0
	for iEl := 0; iEl < result.Count; iEl++ {
		j := result.Index[iEl]
		if math.Abs(result.Array[j]) > zeroTolerance {
			result.Index[count] = j
			count++
		} else {
			result.Array[j] = 0
		}
	}
	result.Count = count
}
