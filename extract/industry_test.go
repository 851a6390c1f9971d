package extract

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadIndustryMap(t *testing.T) {
	csv := "ind,indname\n" +
		"4670,Retail Trade\n" +
		"770,Construction\n" +
		"8660, Arts and Entertainment \n"

	fn := writeFile(t, "ind.csv", csv)

	lookup, e := LoadIndustryMap(fn)
	assert.Nil(t, e)
	assert.Equal(t, 3, len(lookup))

	nm, ok := lookup.Name(4670)
	assert.True(t, ok)
	assert.Equal(t, "Retail Trade", nm)

	// names are trimmed
	nm, ok = lookup.Name(8660)
	assert.True(t, ok)
	assert.Equal(t, "Arts and Entertainment", nm)

	// absent code leaves the industry unresolved
	_, ok = lookup.Name(9999)
	assert.False(t, ok)
}

func TestLoadIndustryMapNoHeader(t *testing.T) {
	fn := writeFile(t, "ind.csv", "4670,Retail Trade\n770,Construction\n")

	lookup, e := LoadIndustryMap(fn)
	assert.Nil(t, e)
	assert.Equal(t, 2, len(lookup))
}

func TestLoadIndustryMapErrors(t *testing.T) {
	_, e := LoadIndustryMap(filepath.Join(t.TempDir(), "nope.csv"))
	assert.NotNil(t, e)

	fn := writeFile(t, "dup.csv", "4670,Retail Trade\n4670,Retail Again\n")
	_, e = LoadIndustryMap(fn)
	assert.NotNil(t, e)
	assert.Contains(t, e.Error(), "duplicate code")

	fn = writeFile(t, "badcode.csv", "4670,Retail Trade\nxx,Construction\n")
	_, e = LoadIndustryMap(fn)
	assert.NotNil(t, e)

	fn = writeFile(t, "empty.csv", "")
	_, e = LoadIndustryMap(fn)
	assert.NotNil(t, e)

	fn = writeFile(t, "headeronly.csv", "ind,indname\n")
	_, e = LoadIndustryMap(fn)
	assert.NotNil(t, e)
}
