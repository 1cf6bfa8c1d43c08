package predictor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTrainingCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrainingCSV(&buf, twoMatchCorpus()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "HS,AS,HST,AST,HC,AC,HF,AF,HY,AY,HR,AR,match_result", lines[0])
	assert.Equal(t, "15,8,6,3,7,4,10,12,1,2,0,0,1", lines[1])
	assert.Equal(t, "10,12,4,5,5,6,11,9,2,1,0,1,0", lines[2])
}
