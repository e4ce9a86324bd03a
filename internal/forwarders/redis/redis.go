package redis

import (
	"crypto/tls"
	"time"

	"github.com/go-redis/redis"

	"github.com/noctarius/tablestream/internal/logging"
	spiconfig "github.com/noctarius/tablestream/spi/config"
	"github.com/noctarius/tablestream/spi/encoding"
	"github.com/noctarius/tablestream/spi/forwarder"
	"github.com/noctarius/tablestream/spi/stream"
)

func init() {
	forwarder.RegisterForwarder(spiconfig.Redis, newRedisForwarder)
}

// redisForwarder mirrors the conflated snapshot into a Redis hash
// and publishes every emitted batch onto a Redis stream.
type redisForwarder struct {
	client    *redis.Client
	keyColumn string
	hashKey   string
	streamKey string
	pipeline  forwarder.Pipeline
	encoder   *encoding.JsonEncoder
	tokens    []string
	logger    *logging.Logger
}

func newRedisForwarder(
	config *spiconfig.Config, pipeline forwarder.Pipeline,
) (forwarder.Forwarder, error) {

	options := &redis.Options{
		Network: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisNetwork, "tcp",
		),
		Addr: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisAddress, "localhost:6379",
		),
		Password: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisPassword, "",
		),
		DB: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisDatabase, 0,
		),
		MaxRetries: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisRetriesMax, 0,
		),
		MinRetryBackoff: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisRetriesBackoffMin, time.Duration(8),
		) * time.Microsecond,
		MaxRetryBackoff: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisRetriesBackoffMax, time.Duration(512),
		) * time.Microsecond,
		DialTimeout: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisTimeoutDial, time.Duration(0),
		),
		ReadTimeout: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisTimeoutRead, time.Duration(0),
		) * time.Second,
		WriteTimeout: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisTimeoutWrite, time.Duration(0),
		) * time.Second,
		PoolSize: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisPoolsize, 0,
		),
		PoolTimeout: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisTimeoutPool, time.Duration(0),
		) * time.Second,
		IdleTimeout: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisTimeoutIdle, time.Duration(0),
		) * time.Minute,
	}

	if config.Forwarders.Redis.TLS.Enabled {
		options.TLSConfig = &tls.Config{
			InsecureSkipVerify: spiconfig.GetOrDefault(
				config, spiconfig.PropertyRedisTlsSkipVerify, false,
			),
			ClientAuth: spiconfig.GetOrDefault(
				config, spiconfig.PropertyRedisTlsClientAuth, tls.NoClientCert,
			),
		}
	}

	logger, err := logging.NewLogger("RedisForwarder")
	if err != nil {
		return nil, err
	}

	return &redisForwarder{
		client:    redis.NewClient(options),
		keyColumn: spiconfig.GetOrDefault(config, spiconfig.PropertyPipelineKeyColumn, "id"),
		hashKey: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisHashKey, "tablestream:snapshot",
		),
		streamKey: spiconfig.GetOrDefault(
			config, spiconfig.PropertyRedisStreamKey, "tablestream:feed",
		),
		pipeline: pipeline,
		encoder:  encoding.NewJsonEncoderWithConfig(config),
		logger:   logger,
	}, nil
}

func (r *redisForwarder) Start() error {
	if err := r.client.Ping().Err(); err != nil {
		return stream.NewTransportError(err, "pinging redis")
	}

	token, err := r.pipeline.OnData(r.onData)
	if err != nil {
		return err
	}
	r.tokens = append(r.tokens, token)

	token, err = r.pipeline.OnConflatedBatch(r.onConflatedBatch)
	if err != nil {
		return err
	}
	r.tokens = append(r.tokens, token)

	// Seed the hash with whatever snapshot state already exists
	for _, record := range r.pipeline.Snapshot() {
		r.upsertRecord(record)
	}
	return nil
}

func (r *redisForwarder) Stop() error {
	for _, token := range r.tokens {
		r.pipeline.Unsubscribe(token)
	}
	r.tokens = nil
	return r.client.Close()
}

func (r *redisForwarder) onData(
	records []stream.Record, metadata stream.Metadata,
) {

	data, err := r.encoder.Marshal(encoding.FeedEnvelope{
		Records:  records,
		Metadata: metadata,
	})
	if err != nil {
		r.logger.Errorf("marshalling batch failed: %s", err.Error())
		return
	}

	if err := r.client.XAdd(&redis.XAddArgs{
		Stream: r.streamKey,
		Values: map[string]any{
			"envelope": string(data),
		},
	}).Err(); err != nil {
		r.logger.Errorf("appending batch to stream %s failed: %s", r.streamKey, err.Error())
	}
}

func (r *redisForwarder) onConflatedBatch(
	updates []stream.ConflationUpdate,
) {

	for _, update := range updates {
		if update.Operation == stream.OperationRemove {
			key := update.Data.KeyValue(r.keyColumn)
			if err := r.client.HDel(r.hashKey, key).Err(); err != nil {
				r.logger.Errorf("deleting %s from hash %s failed: %s", key, r.hashKey, err.Error())
			}
			continue
		}
		r.upsertRecord(update.Data)
	}
}

func (r *redisForwarder) upsertRecord(
	record stream.Record,
) {

	key := record.KeyValue(r.keyColumn)
	data, err := r.encoder.Marshal(record)
	if err != nil {
		r.logger.Errorf("marshalling record %s failed: %s", key, err.Error())
		return
	}
	if err := r.client.HSet(r.hashKey, key, string(data)).Err(); err != nil {
		r.logger.Errorf("writing %s to hash %s failed: %s", key, r.hashKey, err.Error())
	}
}
