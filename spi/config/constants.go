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

const (
	PropertyPipelineKeyColumn           = "pipeline.keycolumn"
	PropertyPipelineQueueSize           = "pipeline.queuesize"
	PropertyMaxOutOfOrderBuffer         = "pipeline.sequencing.maxoutoforderbuffer"
	PropertyGapTimeout                  = "pipeline.sequencing.gaptimeout"
	PropertyPacingMinBatchSize          = "pipeline.pacing.minbatchsize"
	PropertyPacingMaxBatchSize          = "pipeline.pacing.maxbatchsize"
	PropertyPacingInitialBatchSize      = "pipeline.pacing.initialbatchsize"
	PropertyConflationEnabled           = "pipeline.conflation.enabled"
	PropertyConflationWindow            = "pipeline.conflation.window"
	PropertyConflationMaxBatchSize      = "pipeline.conflation.maxbatchsize"
	PropertyConflationMetrics           = "pipeline.conflation.metrics"

	PropertyTransport = "transport.type"

	PropertyNatsAddress                = "transport.nats.address"
	PropertyNatsSubjectPrefix          = "transport.nats.subjectprefix"
	PropertyNatsAuthorization          = "transport.nats.authorization"
	PropertyNatsUserinfoUsername       = "transport.nats.userinfo.username"
	PropertyNatsUserinfoPassword       = "transport.nats.userinfo.password"
	PropertyNatsCredentialsCertificate = "transport.nats.credentials.certificate"
	PropertyNatsCredentialsSeeds       = "transport.nats.credentials.seeds"
	PropertyNatsJwt                    = "transport.nats.jwt.jwt"
	PropertyNatsJwtSeed                = "transport.nats.jwt.seed"

	PropertyKafkaBrokers       = "transport.kafka.brokers"
	PropertyKafkaGroup         = "transport.kafka.group"
	PropertyKafkaFeedTopic     = "transport.kafka.feedtopic"
	PropertyKafkaControlTopic  = "transport.kafka.controltopic"
	PropertyKafkaSaslEnabled   = "transport.kafka.sasl.enabled"
	PropertyKafkaSaslUser      = "transport.kafka.sasl.user"
	PropertyKafkaSaslPassword  = "transport.kafka.sasl.password"
	PropertyKafkaSaslMechanism = "transport.kafka.sasl.mechanism"
	PropertyKafkaTlsEnabled    = "transport.kafka.tls.enabled"
	PropertyKafkaTlsSkipVerify = "transport.kafka.tls.skipverify"
	PropertyKafkaTlsClientAuth = "transport.kafka.tls.clientauth"

	PropertyRedisNetwork           = "forwarders.redis.network"
	PropertyRedisAddress           = "forwarders.redis.address"
	PropertyRedisPassword          = "forwarders.redis.password"
	PropertyRedisDatabase          = "forwarders.redis.database"
	PropertyRedisHashKey           = "forwarders.redis.hashkey"
	PropertyRedisStreamKey         = "forwarders.redis.streamkey"
	PropertyRedisPoolsize          = "forwarders.redis.poolsize"
	PropertyRedisRetriesMax        = "forwarders.redis.retries.maxattempts"
	PropertyRedisRetriesBackoffMin = "forwarders.redis.retries.backoff.min"
	PropertyRedisRetriesBackoffMax = "forwarders.redis.retries.backoff.max"
	PropertyRedisTimeoutDial       = "forwarders.redis.timeouts.dial"
	PropertyRedisTimeoutRead       = "forwarders.redis.timeouts.read"
	PropertyRedisTimeoutWrite      = "forwarders.redis.timeouts.write"
	PropertyRedisTimeoutPool       = "forwarders.redis.timeouts.pool"
	PropertyRedisTimeoutIdle       = "forwarders.redis.timeouts.idle"
	PropertyRedisTlsSkipVerify     = "forwarders.redis.tls.skipverify"
	PropertyRedisTlsClientAuth     = "forwarders.redis.tls.clientauth"

	PropertySqsQueueUrl           = "forwarders.sqs.queue.url"
	PropertySqsAwsRegion          = "forwarders.sqs.aws.region"
	PropertySqsAwsEndpoint        = "forwarders.sqs.aws.endpoint"
	PropertySqsAwsAccessKeyId     = "forwarders.sqs.aws.accesskeyid"
	PropertySqsAwsSecretAccessKey = "forwarders.sqs.aws.secretaccesskey"
	PropertySqsAwsSessionToken    = "forwarders.sqs.aws.sessiontoken"

	PropertyStdoutPretty = "forwarders.stdout.pretty"

	PropertyStatsEnabled        = "stats.enabled"
	PropertyRuntimeStatsEnabled = "stats.runtime"
	PropertyStatsAddress        = "stats.address"

	PropertyEncodingCustomReflection = "internal.encoding.customreflection"
)

const (
	DefaultQueueSize           = 10000
	DefaultMaxOutOfOrderBuffer = 1000
	DefaultGapTimeoutSeconds   = 5
	DefaultMinBatchSize        = 10
	DefaultMaxBatchSize        = 1000
	DefaultInitialBatchSize    = 100
	DefaultConflationWindowMs  = 100
	DefaultConflationBatchSize = 500
)
