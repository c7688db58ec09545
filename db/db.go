package db

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/mididf/config"
	"github.com/jsphweid/mididf/model"
	"github.com/pkg/errors"
)

// DynamoDB caps BatchGetItem requests at 100 keys.
const maxBatchKeys = 100

const maxBatchAttempts = 8

// first wait before resending unprocessed keys, doubled on every attempt
var retryDelay = 50 * time.Millisecond

type MetadataClient struct {
	api   dynamodbiface.DynamoDBAPI
	table string
}

func NewMetadataClient(cfg config.MetadataConfig) (*MetadataClient, error) {
	endpoint := cfg.Endpoint
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String(cfg.Region),
		Endpoint: &endpoint,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Could not create a new DynamoDB session")
	}
	return &MetadataClient{api: dynamodb.New(sess), table: cfg.Table}, nil
}

func NewMetadataClientWithAPI(api dynamodbiface.DynamoDBAPI, table string) *MetadataClient {
	return &MetadataClient{api: api, table: table}
}

// GetMidiMetadatas looks up metadata by filename. Files without an item are
// absent from the result.
func (c *MetadataClient) GetMidiMetadatas(filenames []string) (map[string]model.MidiMetadata, error) {
	res := make(map[string]model.MidiMetadata)

	for start := 0; start < len(filenames); start += maxBatchKeys {
		end := start + maxBatchKeys
		if end > len(filenames) {
			end = len(filenames)
		}

		var keys []map[string]*dynamodb.AttributeValue
		for _, filename := range filenames[start:end] {
			keys = append(keys, map[string]*dynamodb.AttributeValue{
				"PK": {S: aws.String(filename)},
			})
		}

		if err := c.batchGet(keys, res); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// batchGet fetches keys into res, resending whatever DynamoDB reports as
// unprocessed until nothing is left.
func (c *MetadataClient) batchGet(keys []map[string]*dynamodb.AttributeValue, res map[string]model.MidiMetadata) error {
	requestItems := map[string]*dynamodb.KeysAndAttributes{
		c.table: {Keys: keys},
	}
	delay := retryDelay
	for attempt := 0; len(requestItems) > 0; attempt++ {
		if attempt == maxBatchAttempts {
			return errors.Errorf("DynamoDB left %d keys unprocessed", len(requestItems[c.table].Keys))
		}
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}

		dbres, err := c.api.BatchGetItem(&dynamodb.BatchGetItemInput{RequestItems: requestItems})
		if err != nil {
			return errors.Wrap(err, "Error from DynamoDB")
		}
		for _, item := range dbres.Responses[c.table] {
			pk, s := metadataFromItem(item)
			if pk != "" {
				res[pk] = s
			}
		}

		requestItems = nil
		if ka := dbres.UnprocessedKeys[c.table]; ka != nil && len(ka.Keys) > 0 {
			requestItems = map[string]*dynamodb.KeysAndAttributes{c.table: ka}
		}
	}
	return nil
}

func metadataFromItem(v map[string]*dynamodb.AttributeValue) (string, model.MidiMetadata) {
	var s model.MidiMetadata
	if y := v["Year"]; y != nil && y.N != nil {
		year, _ := strconv.ParseUint(*y.N, 10, 32)
		s.Year = uint(year)
	}
	s.Artist = stringAttr(v, "Artist")
	s.Release = stringAttr(v, "Release")
	s.Title = stringAttr(v, "Title")
	return stringAttr(v, "PK"), s
}

func stringAttr(v map[string]*dynamodb.AttributeValue, name string) string {
	if a := v[name]; a != nil && a.S != nil {
		return *a.S
	}
	return ""
}
