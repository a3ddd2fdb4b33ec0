// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command slitterstat reports the active build's chunk/span geometry
// and, given a batch config file, registers each listed class and
// prints its span-packing math.
package main

import (
	"flag"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/backtrace-labs/slitter"
)

// classSpec mirrors slitter.ClassConfig for YAML batch files.
type classSpec struct {
	Name       string `json:"name"`
	Size       uint64 `json:"size"`
	ZeroInit   bool   `json:"zero_init"`
	MapperName string `json:"mapper_name"`
}

type batchConfig struct {
	Classes []classSpec `json:"classes"`
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, r)
			os.Exit(1)
		}
	}()

	configPath := flag.String("config", "", "YAML file listing classes to register and report on")
	flag.Parse()

	fmt.Printf("chunk data size:   %d\n", slitter.ChunkDataSize())
	fmt.Printf("guard size:        %d\n", slitter.GuardSize())
	fmt.Printf("metadata size:     %d\n", slitter.MetadataSize())
	fmt.Printf("span alignment:    %d\n", slitter.SpanAlignment())
	fmt.Printf("magazine capacity: %d\n", slitter.MagazineCapacity())

	if *configPath == "" {
		return
	}

	raw, err := os.ReadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "slitterstat: %s\n", err)
		os.Exit(1)
	}
	var batch batchConfig
	if err := yaml.Unmarshal(raw, &batch); err != nil {
		fmt.Fprintf(os.Stderr, "slitterstat: parsing %s: %s\n", *configPath, err)
		os.Exit(1)
	}

	fmt.Println()
	for _, spec := range batch.Classes {
		size := uintptr(spec.Size)
		if size == 0 {
			fmt.Fprintf(os.Stderr, "slitterstat: class %q: size must be non-zero\n", spec.Name)
			os.Exit(1)
		}
		c := slitter.Register(slitter.ClassConfig{
			Name:       spec.Name,
			Size:       size,
			ZeroInit:   spec.ZeroInit,
			MapperName: spec.MapperName,
		})
		objects := slitter.ObjectsPerSpan(size)
		fmt.Printf("class %q: id=%d size=%d zero_init=%v objects_per_span=%d span_bytes=%d\n",
			spec.Name, c.ID(), size, spec.ZeroInit, objects, objects*size)
	}
}
