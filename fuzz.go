//go:build gofuzz
// +build gofuzz

package simpleubjson

import (
	"fmt"
)

func Fuzz(data []byte) int {
	for _, spec := range []Spec{Draft8, Draft9} {
		v, err := Unmarshal(data, spec)
		if err != nil {
			continue
		}
		b, err := Marshal(v, spec)
		if err != nil {
			fmt.Printf("Failed to marshal %#v\n", v)
			panic(err)
		}
		if _, err := Unmarshal(b, spec); err != nil {
			fmt.Printf("Failed to unmarshal %#v\n", string(b))
			panic(err)
		}
	}
	return 0
}
