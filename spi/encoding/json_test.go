package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noctarius/tablestream/spi/config"
	"github.com/noctarius/tablestream/spi/stream"
)

func Test_Json_Codec_From_Config(t *testing.T) {
	c := &config.Config{}
	encoder := NewJsonEncoderWithConfig(c)
	decoder := NewJsonDecoderWithConfig(c)

	sequence := 7
	envelope := FeedEnvelope{
		Sequence: 42,
		Records: []stream.Record{
			{"id": "a", "price": float64(5)},
		},
		Metadata: stream.Metadata{
			IsSnapshot: false,
			Sequence:   &sequence,
		},
	}

	data, err := encoder.Marshal(envelope)
	require.NoError(t, err)

	decoded := FeedEnvelope{}
	require.NoError(t, decoder.Unmarshal(data, &decoded))

	assert.Equal(t, 42, decoded.Sequence)
	require.Len(t, decoded.Records, 1)
	assert.Equal(t, "a", decoded.Records[0]["id"])
	require.NotNil(t, decoded.Metadata.Sequence)
	assert.Equal(t, 7, *decoded.Metadata.Sequence)
}
