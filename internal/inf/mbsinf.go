// Copyright 2026 The CUDEM Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package inf

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ParseMBSInf converts a native MB-System ".inf" text block into the
// common Inf schema, per spec §3/§4.3. MB-System inf files are plain text
// reports of the form:
//
//	Number of Data Records: 12345
//	Minimum Longitude:    -71.500000   Maximum Longitude:   -71.200000
//	Minimum Latitude:      41.100000   Maximum Latitude:     41.300000
//	Minimum Depth:            5.250000   Maximum Depth:          88.400000
//
// Lines that don't match a recognized "Minimum X: v Maximum X: v" or
// "Number of Data Records:" pattern are ignored.
func ParseMBSInf(data []byte) (Inf, error) {
	if !bytes.Contains(data, []byte("MBIO")) && !bytes.Contains(data, []byte("Number of Data Records")) {
		return Inf{}, ErrNotMBSInf
	}
	out := Inf{Format: 301}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "Number of Data Records:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "Number of Data Records:"))
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				out.NumPts = n
			}
		case strings.HasPrefix(line, "Minimum Longitude:"):
			lo, hi, ok := twoValues(line, "Minimum Longitude:", "Maximum Longitude:")
			if ok {
				out.MinMax[0], out.MinMax[1] = lo, hi
			}
		case strings.HasPrefix(line, "Minimum Latitude:"):
			lo, hi, ok := twoValues(line, "Minimum Latitude:", "Maximum Latitude:")
			if ok {
				out.MinMax[2], out.MinMax[3] = lo, hi
			}
		case strings.HasPrefix(line, "Minimum Depth:"):
			lo, hi, ok := twoValues(line, "Minimum Depth:", "Maximum Depth:")
			if ok {
				out.MinMax[4], out.MinMax[5] = -hi, -lo
			}
		}
	}
	return out, sc.Err()
}

func twoValues(line, loLabel, hiLabel string) (lo, hi float64, ok bool) {
	idx := strings.Index(line, hiLabel)
	if idx < 0 {
		return 0, 0, false
	}
	loPart := strings.TrimSpace(strings.TrimPrefix(line[:idx], loLabel))
	hiPart := strings.TrimSpace(strings.TrimPrefix(line[idx:], hiLabel))
	loV, err1 := strconv.ParseFloat(loPart, 64)
	hiV, err2 := strconv.ParseFloat(hiPart, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return loV, hiV, true
}

// CoverageWKT builds a bounding-box multi-polygon WKT from an Inf's
// minmax, used as the coverage mask when the MB-System source doesn't
// carry a finer-grained footprint. Full supergrid polygonization is an
// ExternalGridder-adjacent concern (ties to MB-System's own mask tools)
// and out of this package's scope.
func CoverageWKT(i Inf) string {
	x0, x1, y0, y1 := i.MinMax[0], i.MinMax[1], i.MinMax[2], i.MinMax[3]
	return fmt.Sprintf("MULTIPOLYGON(((%v %v,%v %v,%v %v,%v %v,%v %v)))",
		x0, y0, x1, y0, x1, y1, x0, y1, x0, y0)
}
