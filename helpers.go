package cpscovid

import (
	"crypto/rand"
	"math/big"
	"os"
	"strings"
)

// *********** Helpers ***********

// slash appends a trailing slash if there isn't one
func slash(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}

	return path + "/"
}

// tempFile produces a random temp file name in the system's tmp location.
// The file has extension "ext". The file name begins with "tmp" has length 3 + length.
func tempFile(ext string, length int) string {
	return slash(os.TempDir()) + "tmp" + randomLetters(length) + "." + ext
}

// randomLetters generates a string of length "length" by randomly choosing from a-z
func randomLetters(length int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"

	var (
		name  string
		randN []int64
		e     error
	)

	if randN, e = randUnifInt(length, len(letters)); e != nil {
		panic(e)
	}

	for ind := 0; ind < length; ind++ {
		name += letters[randN[ind] : randN[ind]+1]
	}

	return name
}

// randUnifInt generates a slice whose elements are random U[0,upper) int64's
func randUnifInt(n, upper int) ([]int64, error) {
	outInts := make([]int64, 0, n)

	for ind := 0; ind < n; ind++ {
		b, e := rand.Int(rand.Reader, big.NewInt(int64(upper)))
		if e != nil {
			return nil, e
		}

		outInts = append(outInts, b.Int64())
	}

	return outInts, nil
}
