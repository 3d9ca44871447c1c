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

package stacker

import (
	"context"

	"github.com/alitto/pond"

	"github.com/jph6366/cudem-sub000/internal/dataset"
	"github.com/jph6366/cudem-sub000/internal/point"
)

// Ingest fans tile production for each of datasets out across a fixed
// worker pool, one dataset's TileIterator per worker goroutine (an
// iterator itself is not safe for concurrent use, but distinct datasets
// are independent), applying every yielded tile to the accumulator under
// Apply's serialized exclusion. workers<=0 defaults to 1.
func (s *Stacker) Ingest(ctx context.Context, datasets []dataset.Dataset, transform point.Transform, workers int) error {
	if workers <= 0 {
		workers = 1
	}
	pool := pond.New(workers, 0, pond.MinWorkers(workers), pond.Context(ctx))
	defer pool.StopAndWait()

	for _, ds := range datasets {
		d := ds
		pool.Submit(func() {
			it, err := d.YieldTiles(s.grid, transform)
			if err != nil {
				s.log.WithFields(map[string]interface{}{"dataset": d.Options().Path, "error": err.Error()}).
					Warn("stacker: dataset failed to yield tiles, skipped")
				return
			}
			defer it.Close()
			for {
				tile, ok, err := it.Next()
				if err != nil {
					s.log.WithFields(map[string]interface{}{"dataset": d.Options().Path, "error": err.Error()}).
						Warn("stacker: tile stream error, remainder skipped")
					return
				}
				if !ok {
					return
				}
				s.Apply(tile)
			}
		})
	}
	return nil
}
