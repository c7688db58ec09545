package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/mididf/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI
	items    map[string]map[string]*dynamodb.AttributeValue
	requests int
	// keys served per request, the rest come back unprocessed; 0 serves all
	perRequest int
}

func (f *fakeDynamo) BatchGetItem(input *dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error) {
	f.requests++
	res := make(map[string][]map[string]*dynamodb.AttributeValue)
	unprocessed := make(map[string]*dynamodb.KeysAndAttributes)
	for table, ka := range input.RequestItems {
		keys := ka.Keys
		if f.perRequest > 0 && len(keys) > f.perRequest {
			unprocessed[table] = &dynamodb.KeysAndAttributes{Keys: keys[f.perRequest:]}
			keys = keys[:f.perRequest]
		}
		for _, key := range keys {
			if item, ok := f.items[*key["PK"].S]; ok {
				res[table] = append(res[table], item)
			}
		}
	}
	return &dynamodb.BatchGetItemOutput{Responses: res, UnprocessedKeys: unprocessed}, nil
}

func item(pk, title string, year string) map[string]*dynamodb.AttributeValue {
	v := map[string]*dynamodb.AttributeValue{
		"PK":      {S: aws.String(pk)},
		"Title":   {S: aws.String(title)},
		"Artist":  {S: aws.String("Mussorgsky")},
		"Release": {S: aws.String("Pictures")},
	}
	if year != "" {
		v["Year"] = &dynamodb.AttributeValue{N: aws.String(year)}
	}
	return v
}

func TestGetMidiMetadatas(t *testing.T) {
	fake := &fakeDynamo{items: map[string]map[string]*dynamodb.AttributeValue{
		"kiev.mid": item("kiev.mid", "The Great Gate of Kiev", "1874"),
	}}
	client := NewMetadataClientWithAPI(fake, "mididf-metadata")

	res, err := client.GetMidiMetadatas([]string{"kiev.mid", "unknown.mid"})
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Len(res, 1)
	assert.Equal(model.MidiMetadata{
		Title:   "The Great Gate of Kiev",
		Artist:  "Mussorgsky",
		Release: "Pictures",
		Year:    1874,
	}, res["kiev.mid"])
}

func TestGetMidiMetadatasBatches(t *testing.T) {
	fake := &fakeDynamo{}
	client := NewMetadataClientWithAPI(fake, "t")

	names := make([]string, 250)
	for i := range names {
		names[i] = "x"
	}
	_, err := client.GetMidiMetadatas(names)
	require.NoError(t, err)
	assert.Equal(t, 3, fake.requests)

	_, err = client.GetMidiMetadatas(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, fake.requests)
}

func TestMetadataFromItemToleratesMissingAttributes(t *testing.T) {
	pk, m := metadataFromItem(map[string]*dynamodb.AttributeValue{"PK": {S: aws.String("a.mid")}})
	assert.Equal(t, "a.mid", pk)
	assert.Equal(t, model.MidiMetadata{}, m)
}

func TestGetMidiMetadatasRetriesUnprocessedKeys(t *testing.T) {
	retryDelay = time.Millisecond
	fake := &fakeDynamo{
		perRequest: 1,
		items: map[string]map[string]*dynamodb.AttributeValue{
			"a.mid": item("a.mid", "A", ""),
			"b.mid": item("b.mid", "B", ""),
			"c.mid": item("c.mid", "C", ""),
		},
	}
	client := NewMetadataClientWithAPI(fake, "t")

	res, err := client.GetMidiMetadatas([]string{"a.mid", "b.mid", "c.mid"})
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Len(res, 3)
	assert.Equal("C", res["c.mid"].Title)
	assert.Equal(3, fake.requests)
}

func TestGetMidiMetadatasGivesUpOnStuckKeys(t *testing.T) {
	retryDelay = time.Microsecond
	names := make([]string, maxBatchAttempts+1)
	for i := range names {
		names[i] = fmt.Sprintf("%d.mid", i)
	}
	fake := &fakeDynamo{perRequest: 1}
	client := NewMetadataClientWithAPI(fake, "t")

	_, err := client.GetMidiMetadatas(names)
	assert.Error(t, err)
	assert.Equal(t, maxBatchAttempts, fake.requests)
}
