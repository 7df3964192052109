package shopconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-divvit-tracking/internal/aws"
)

// MerchantSiteIDElement is the config element holding the vendor site id.
const MerchantSiteIDElement = "divvitMerchantSiteId"

// pluginStatePrefix names the FormShopID items recording whether a plugin is
// installed.
const pluginStatePrefix = "plugin#"

// ErrUnknownElement is returned when writing a value for an element that was
// never defined.
var ErrUnknownElement = errors.New("unknown config element")

// Store encapsulates operations on the shop config table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new shop config Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Get fetches an element by shop and name. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, shopID, name string) (*Element, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       key(shopID, name),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var e Element
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, fmt.Errorf("unmarshal element: %w", err)
	}
	return &e, nil
}

// PutElement stores an element definition, replacing any earlier one.
func (s *Store) PutElement(ctx context.Context, e Element) error {
	e.ShopID = FormShopID
	e.UpdatedAt = s.nowFunc()

	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal element: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// DeleteElement removes an element definition. Deleting a missing element is
// not an error.
func (s *Store) DeleteElement(ctx context.Context, name string) error {
	if _, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key:       key(FormShopID, name),
	}); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// SetValue stores the value of a defined element for one shop.
func (s *Store) SetValue(ctx context.Context, shopID, name, value string) error {
	def, err := s.Get(ctx, FormShopID, name)
	if err != nil {
		return err
	}
	if def == nil {
		return fmt.Errorf("%w: %s", ErrUnknownElement, name)
	}

	now := s.nowFunc()
	_, err = s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                &s.tableName,
		Key:                      key(shopID, name),
		UpdateExpression:         sdkaws.String("SET #v = :v, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#v": "value"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v":  &types.AttributeValueMemberS{Value: value},
			":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// Value returns the shop's value of an element, falling back to the
// definition's default. Values of elements without a definition are ignored,
// so removing the definition disables every shop at once.
func (s *Store) Value(ctx context.Context, shopID, name string) (string, error) {
	def, err := s.Get(ctx, FormShopID, name)
	if err != nil {
		return "", err
	}
	if def == nil {
		return "", nil
	}

	e, err := s.Get(ctx, shopID, name)
	if err != nil {
		return "", err
	}
	if e != nil && e.Value != "" {
		return e.Value, nil
	}
	return def.Value, nil
}

// MerchantSiteID implements tracking.ConfigStore.
func (s *Store) MerchantSiteID(ctx context.Context, shopID string) (string, error) {
	return s.Value(ctx, shopID, MerchantSiteIDElement)
}

// PluginActive reports the persisted install state of a plugin. known is
// false when the plugin was never installed or uninstalled through this store.
func (s *Store) PluginActive(ctx context.Context, plugin string) (active, known bool, err error) {
	e, err := s.Get(ctx, FormShopID, pluginStatePrefix+plugin)
	if err != nil || e == nil {
		return false, false, err
	}
	return e.Value == "active", true, nil
}

// SetPluginActive persists the install state of a plugin.
func (s *Store) SetPluginActive(ctx context.Context, plugin string, active bool) error {
	state := "inactive"
	if active {
		state = "active"
	}
	return s.PutElement(ctx, Element{
		Name:  pluginStatePrefix + plugin,
		Type:  "state",
		Value: state,
	})
}

func key(shopID, name string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"shop_id": &types.AttributeValueMemberS{Value: shopID},
		"name":    &types.AttributeValueMemberS{Value: name},
	}
}

// Static serves one merchant site id for every shop.
type Static struct {
	ID string
}

// MerchantSiteID implements tracking.ConfigStore.
func (s Static) MerchantSiteID(ctx context.Context, shopID string) (string, error) {
	return s.ID, nil
}
