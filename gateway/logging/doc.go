// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

/*
The gateway emits two kinds of output:

 1. Internal logs: the gateway's own application logs (startup banners, producer and sink
    failures, shutdown progress), written through logrus to stderr for operators.
 2. Item output: the text of every consumed item, written by the Consumer Loop to its sink
    (stdout by default, optionally a Kafka topic), one line per item, in FIFO order.

Item output may be mirrored into a tail writer, which is disabled by default and can be
switched on for debugging without touching the primary sink.
*/
package logging
