package tracker

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/pkg/errors"

	"github.com/HERMES-SOC/artifacts/internal/mission"
)

// Item partitions
const (
	InstrumentPartition    = "INSTRUMENT"
	ConfigurationPartition = "CONFIGURATION"
	FilePartition          = "FILE"
)

// DBPutter is an abstraction (helpful for testing)
type DBPutter interface {
	PutItemWithContext(aws.Context, *dynamodb.PutItemInput, ...request.Option) (*dynamodb.PutItemOutput, error)
}

// Dynamo is a DynamoDB tracker. Items share one table and are keyed by
// pk (the partition constant) and sk (the id or file key).
type Dynamo struct {
	ddb     DBPutter
	table   string
	mission *mission.Mission
}

// NewDynamo returns a tracker writing to table
func NewDynamo(d DBPutter, table string, m *mission.Mission) *Dynamo {
	return &Dynamo{ddb: d, table: table, mission: m}
}

func (d *Dynamo) put(ctx context.Context, pk, sk string, v interface{}) error {

	item, err := dynamodbattribute.MarshalMap(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal db record")
	}
	item["pk"] = &dynamodb.AttributeValue{S: aws.String(pk)}
	item["sk"] = &dynamodb.AttributeValue{S: aws.String(sk)}

	input := &dynamodb.PutItemInput{
		Item:      item,
		TableName: aws.String(d.table),
	}

	_, err = d.ddb.PutItemWithContext(ctx, input)
	if err != nil {
		return errors.Wrap(err, "failed to put to db")
	}
	return nil
}

// Setup writes the instrument and configuration items
func (d *Dynamo) Setup(ctx context.Context) error {

	for _, inst := range d.mission.Instruments() {
		if err := d.put(ctx, InstrumentPartition, strconv.Itoa(inst.ID), inst); err != nil {
			return errors.Wrapf(err, "failed to store instrument %s", inst.Name)
		}
	}

	for _, c := range d.mission.Configurations() {
		fields := c.Fields()
		fields["id"] = c.ID
		if err := d.put(ctx, ConfigurationPartition, strconv.Itoa(c.ID), fields); err != nil {
			return errors.Wrapf(err, "failed to store configuration %d", c.ID)
		}
	}
	return nil
}

// Register writes the file item
func (d *Dynamo) Register(ctx context.Context, rec FileRecord) error {
	if err := d.put(ctx, FilePartition, rec.FileKey, rec); err != nil {
		return errors.Wrap(err, "failed to register science file")
	}
	return nil
}
