package utils

import (
	"github.com/twmb/murmur3"
)

func HashStrings(ss []string) uint64 {
	hash := murmur3.New64()
	for _, s := range ss {
		_, err := hash.Write([]byte(s))
		if err != nil {
			panic(err)
		}
		_, err = hash.Write([]byte{0})
		if err != nil {
			panic(err)
		}
	}
	return hash.Sum64()
}
