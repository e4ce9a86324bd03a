/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"crypto/tls"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

type TransportType string

const (
	NATS  TransportType = "nats"
	Kafka TransportType = "kafka"
)

type ForwarderType string

const (
	Stdout ForwarderType = "stdout"
	Redis  ForwarderType = "redis"
	AwsSQS ForwarderType = "awssqs"
)

type NatsAuthorizationType string

const (
	UserInfo    NatsAuthorizationType = "userinfo"
	Credentials NatsAuthorizationType = "credentials"
	Jwt         NatsAuthorizationType = "jwt"
)

type PipelineConfig struct {
	KeyColumn  string           `toml:"keycolumn" yaml:"keycolumn"`
	QueueSize  int              `toml:"queuesize" yaml:"queuesize"`
	Sequencing SequencingConfig `toml:"sequencing" yaml:"sequencing"`
	Pacing     PacingConfig     `toml:"pacing" yaml:"pacing"`
	Conflation ConflationConfig `toml:"conflation" yaml:"conflation"`
	Filters    map[string]RowFilterConfig `toml:"filters" yaml:"filters"`
}

type SequencingConfig struct {
	MaxOutOfOrderBuffer int           `toml:"maxoutoforderbuffer" yaml:"maxoutoforderbuffer"`
	GapTimeout          time.Duration `toml:"gaptimeout" yaml:"gaptimeout"`
}

type PacingConfig struct {
	MinBatchSize     int `toml:"minbatchsize" yaml:"minbatchsize"`
	MaxBatchSize     int `toml:"maxbatchsize" yaml:"maxbatchsize"`
	InitialBatchSize int `toml:"initialbatchsize" yaml:"initialbatchsize"`
}

type ConflationConfig struct {
	Enabled      *bool         `toml:"enabled" yaml:"enabled"`
	Window       time.Duration `toml:"window" yaml:"window"`
	MaxBatchSize int           `toml:"maxbatchsize" yaml:"maxbatchsize"`
	Metrics      bool          `toml:"metrics" yaml:"metrics"`
}

type RowFilterConfig struct {
	Condition    string `toml:"condition" yaml:"condition"`
	DefaultValue *bool  `toml:"default" yaml:"default"`
}

type TransportConfig struct {
	Type  TransportType `toml:"type" yaml:"type"`
	Nats  NatsConfig    `toml:"nats" yaml:"nats"`
	Kafka KafkaConfig   `toml:"kafka" yaml:"kafka"`
}

type NatsUserInfoConfig struct {
	Username string `toml:"username" yaml:"username"`
	Password string `toml:"password" yaml:"password"`
}

type NatsCredentialsConfig struct {
	Certificate string   `toml:"certificate" yaml:"certificate"`
	Seeds       []string `toml:"seeds" yaml:"seeds"`
}

type NatsJWTConfig struct {
	JWT  string `toml:"jwt" yaml:"jwt"`
	Seed string `toml:"seed" yaml:"seed"`
}

type NatsConfig struct {
	Address       string                `toml:"address" yaml:"address"`
	SubjectPrefix string                `toml:"subjectprefix" yaml:"subjectprefix"`
	Authorization NatsAuthorizationType `toml:"authorization" yaml:"authorization"`
	UserInfo      NatsUserInfoConfig    `toml:"userinfo" yaml:"userinfo"`
	Credentials   NatsCredentialsConfig `toml:"credentials" yaml:"credentials"`
	JWT           NatsJWTConfig         `toml:"jwt" yaml:"jwt"`
}

type KafkaSaslConfig struct {
	Enabled   bool                 `toml:"enabled" yaml:"enabled"`
	User      string               `toml:"user" yaml:"user"`
	Password  string               `toml:"password" yaml:"password"`
	Mechanism sarama.SASLMechanism `toml:"mechanism" yaml:"mechanism"`
}

type KafkaConfig struct {
	Brokers      []string        `toml:"brokers" yaml:"brokers"`
	Group        string          `toml:"group" yaml:"group"`
	FeedTopic    string          `toml:"feedtopic" yaml:"feedtopic"`
	ControlTopic string          `toml:"controltopic" yaml:"controltopic"`
	Sasl         KafkaSaslConfig `toml:"sasl" yaml:"sasl"`
	TLS          TLSConfig       `toml:"tls" yaml:"tls"`
}

type TLSConfig struct {
	Enabled    bool               `toml:"enabled" yaml:"enabled"`
	SkipVerify bool               `toml:"skipverify" yaml:"skipverify"`
	ClientAuth tls.ClientAuthType `toml:"clientauth" yaml:"clientauth"`
}

type ForwardersConfig struct {
	Types  []ForwarderType    `toml:"types" yaml:"types"`
	Redis  RedisConfig        `toml:"redis" yaml:"redis"`
	Sqs    SqsConfig          `toml:"sqs" yaml:"sqs"`
	Stdout StdoutConfig       `toml:"stdout" yaml:"stdout"`
}

type StdoutConfig struct {
	Pretty bool `toml:"pretty" yaml:"pretty"`
}

type RedisConfig struct {
	Network   string             `toml:"network" yaml:"network"`
	Address   string             `toml:"address" yaml:"address"`
	Password  string             `toml:"password" yaml:"password"`
	Database  int                `toml:"database" yaml:"database"`
	HashKey   string             `toml:"hashkey" yaml:"hashkey"`
	StreamKey string             `toml:"streamkey" yaml:"streamkey"`
	Retries   RedisRetryConfig   `toml:"retries" yaml:"retries"`
	Timeouts  RedisTimeoutConfig `toml:"timeouts" yaml:"timeouts"`
	PoolSize  int                `toml:"poolsize" yaml:"poolsize"`
	TLS       TLSConfig          `toml:"tls" yaml:"tls"`
}

type RedisRetryConfig struct {
	MaxAttempts int                     `toml:"maxattempts" yaml:"maxattempts"`
	Backoff     RedisRetryBackoffConfig `toml:"backoff" yaml:"backoff"`
}

type RedisRetryBackoffConfig struct {
	Min int `toml:"min" yaml:"min"`
	Max int `toml:"max" yaml:"max"`
}

type RedisTimeoutConfig struct {
	Dial  int `toml:"dial" yaml:"dial"`
	Read  int `toml:"read" yaml:"read"`
	Write int `toml:"write" yaml:"write"`
	Pool  int `toml:"pool" yaml:"pool"`
	Idle  int `toml:"idle" yaml:"idle"`
}

type SqsConfig struct {
	Queue SqsQueueConfig `toml:"queue" yaml:"queue"`
	Aws   AwsConfig      `toml:"aws" yaml:"aws"`
}

type SqsQueueConfig struct {
	Url *string `toml:"url" yaml:"url"`
}

type AwsConfig struct {
	Region          *string `toml:"region" yaml:"region"`
	Endpoint        string  `toml:"endpoint" yaml:"endpoint"`
	AccessKeyId     *string `toml:"accesskeyid" yaml:"accesskeyid"`
	SecretAccessKey *string `toml:"secretaccesskey" yaml:"secretaccesskey"`
	SessionToken    *string `toml:"sessiontoken" yaml:"sessiontoken"`
}

type StatsConfig struct {
	Enabled *bool  `toml:"enabled" yaml:"enabled"`
	Runtime *bool  `toml:"runtime" yaml:"runtime"`
	Address string `toml:"address" yaml:"address"`
}

type LoggerConfig struct {
	Level   string                         `toml:"level" yaml:"level"`
	Outputs LoggerOutputConfig             `toml:"outputs" yaml:"outputs"`
	Loggers map[string]SubLoggerConfig     `toml:"loggers" yaml:"loggers"`
}

type LoggerOutputConfig struct {
	Console LoggerConsoleConfig `toml:"console" yaml:"console"`
	File    LoggerFileConfig    `toml:"file" yaml:"file"`
}

type SubLoggerConfig struct {
	Level   *string            `toml:"level" yaml:"level"`
	Outputs LoggerOutputConfig `toml:"outputs" yaml:"outputs"`
}

type LoggerConsoleConfig struct {
	Enabled *bool `toml:"enabled" yaml:"enabled"`
}

type LoggerFileConfig struct {
	Enabled     *bool          `toml:"enabled" yaml:"enabled"`
	Path        string         `toml:"path" yaml:"path"`
	Rotate      *bool          `toml:"rotate" yaml:"rotate"`
	MaxSize     *string        `toml:"maxsize" yaml:"maxsize"`
	MaxDuration *time.Duration `toml:"maxduration" yaml:"maxduration"`
	Compress    bool           `toml:"compress" yaml:"compress"`
}

type InternalConfig struct {
	Encoding EncodingConfig `toml:"encoding" yaml:"encoding"`
}

type EncodingConfig struct {
	CustomReflection *bool `toml:"customreflection" yaml:"customreflection"`
}

type Config struct {
	Pipeline   PipelineConfig   `toml:"pipeline" yaml:"pipeline"`
	Transport  TransportConfig  `toml:"transport" yaml:"transport"`
	Forwarders ForwardersConfig `toml:"forwarders" yaml:"forwarders"`
	Stats      StatsConfig      `toml:"stats" yaml:"stats"`
	Logging    LoggerConfig     `toml:"logging" yaml:"logging"`
	Internal   InternalConfig   `toml:"internal" yaml:"internal"`
}

func GetOrDefault[V any](
	config *Config, canonicalProperty string, defaultValue V,
) V {

	if env, found := findEnvProperty(canonicalProperty, defaultValue); found {
		return env
	}

	properties := strings.Split(canonicalProperty, ".")

	element := reflect.ValueOf(*config)
	for _, property := range properties {
		if e, ok := findProperty(element, property); ok {
			element = e
		} else {
			return defaultValue
		}
	}

	if !element.IsZero() &&
		!(element.Kind() == reflect.Ptr && element.IsNil()) {

		if element.Kind() == reflect.Ptr {
			element = element.Elem()
		}

		return element.Convert(reflect.TypeOf(defaultValue)).Interface().(V)
	}
	return defaultValue
}

func findEnvProperty[V any](
	canonicalProperty string, defaultValue V,
) (V, bool) {

	t := reflect.TypeOf(defaultValue)

	envVarName := strings.ToUpper(canonicalProperty)
	envVarName = strings.ReplaceAll(envVarName, "_", "__")
	envVarName = strings.ReplaceAll(envVarName, ".", "_")
	if val, ok := os.LookupEnv(envVarName); ok {
		v := reflect.ValueOf(val)
		cv := v.Convert(t)
		if !cv.IsZero() &&
			!(cv.Kind() == reflect.Ptr && cv.IsNil()) {
			return cv.Interface().(V), true
		}
	}
	return defaultValue, false
}

func findProperty(
	element reflect.Value, property string,
) (reflect.Value, bool) {

	t := element.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" && !f.Anonymous {
			continue
		}

		if f.Tag.Get("toml") == property {
			return element.Field(i), true
		}
	}
	return reflect.Value{}, false
}
