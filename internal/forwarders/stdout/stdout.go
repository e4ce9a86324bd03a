package stdout

import (
	"github.com/goccy/go-json"

	"github.com/noctarius/tablestream/internal/logging"
	spiconfig "github.com/noctarius/tablestream/spi/config"
	"github.com/noctarius/tablestream/spi/encoding"
	"github.com/noctarius/tablestream/spi/forwarder"
	"github.com/noctarius/tablestream/spi/stream"
)

func init() {
	forwarder.RegisterForwarder(spiconfig.Stdout, newStdoutForwarder)
}

type stdoutForwarder struct {
	pipeline forwarder.Pipeline
	encoder  *encoding.JsonEncoder
	pretty   bool
	tokens   []string
	logger   *logging.Logger
}

func newStdoutForwarder(
	c *spiconfig.Config, pipeline forwarder.Pipeline,
) (forwarder.Forwarder, error) {

	logger, err := logging.NewLogger("StdoutForwarder")
	if err != nil {
		return nil, err
	}

	return &stdoutForwarder{
		pipeline: pipeline,
		encoder:  encoding.NewJsonEncoderWithConfig(c),
		pretty:   spiconfig.GetOrDefault(c, spiconfig.PropertyStdoutPretty, false),
		logger:   logger,
	}, nil
}

func (s *stdoutForwarder) Start() error {
	token, err := s.pipeline.OnData(s.onData)
	if err != nil {
		return err
	}
	s.tokens = append(s.tokens, token)
	return nil
}

func (s *stdoutForwarder) Stop() error {
	for _, token := range s.tokens {
		s.pipeline.Unsubscribe(token)
	}
	s.tokens = nil
	return nil
}

func (s *stdoutForwarder) onData(
	records []stream.Record, metadata stream.Metadata,
) {

	envelope := encoding.FeedEnvelope{
		Records:  records,
		Metadata: metadata,
	}

	var data []byte
	var err error
	if s.pretty {
		data, err = json.MarshalIndent(envelope, "", "  ")
	} else {
		data, err = s.encoder.Marshal(envelope)
	}
	if err != nil {
		s.logger.Errorf("marshalling batch failed: %s", err.Error())
		return
	}
	s.logger.Infof("===> \t%s\n", string(data))
}
