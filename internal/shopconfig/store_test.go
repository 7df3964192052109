package shopconfig

import (
	"context"
	"errors"
	"sync"
	"testing"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDynamo stores items keyed by "shop_id/name".
type mockDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	err   error
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func pk(item map[string]types.AttributeValue) string {
	return item["shop_id"].(*types.AttributeValueMemberS).Value + "/" + item["name"].(*types.AttributeValueMemberS).Value
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.items[pk(params.Item)] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &dyn.GetItemOutput{Item: m.items[pk(params.Key)]}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	k := pk(params.Key)
	item, ok := m.items[k]
	if !ok {
		// UpdateItem upserts
		item = map[string]types.AttributeValue{}
		for name, v := range params.Key {
			item[name] = v
		}
	}
	if v, ok := params.ExpressionAttributeValues[":v"]; ok {
		item["value"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":ua"]; ok {
		item["updated_at"] = v
	}
	m.items[k] = item
	return &dyn.UpdateItemOutput{}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	delete(m.items, pk(params.Key))
	return &dyn.DeleteItemOutput{}, nil
}

func TestStore_ElementLifecycle(t *testing.T) {
	mock := newMockDynamo()
	s := NewStore(mock, "shop-config")
	ctx := context.Background()

	err := s.PutElement(ctx, Element{
		Name:       MerchantSiteIDElement,
		Type:       "text",
		Label:      "Frontend ID",
		Required:   true,
		Scope:      ScopeShop,
		ParentForm: "Interface",
	})
	require.NoError(t, err)

	def, err := s.Get(ctx, FormShopID, MerchantSiteIDElement)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, "Frontend ID", def.Label)
	assert.Equal(t, ScopeShop, def.Scope)
	assert.False(t, def.UpdatedAt.IsZero())

	id, err := s.MerchantSiteID(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, s.SetValue(ctx, "1", MerchantSiteIDElement, "merchant-1"))

	id, err = s.MerchantSiteID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "merchant-1", id)

	id, err = s.MerchantSiteID(ctx, "2")
	require.NoError(t, err)
	assert.Empty(t, id, "values are shop scoped")

	require.NoError(t, s.DeleteElement(ctx, MerchantSiteIDElement))
	def, err = s.Get(ctx, FormShopID, MerchantSiteIDElement)
	require.NoError(t, err)
	assert.Nil(t, def)

	id, err = s.MerchantSiteID(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, id, "shop values are ignored once the definition is gone")
}

func TestStore_PluginState(t *testing.T) {
	s := NewStore(newMockDynamo(), "shop-config")
	ctx := context.Background()

	_, known, err := s.PluginActive(ctx, "DivvitTracking")
	require.NoError(t, err)
	assert.False(t, known)

	require.NoError(t, s.SetPluginActive(ctx, "DivvitTracking", true))
	active, known, err := s.PluginActive(ctx, "DivvitTracking")
	require.NoError(t, err)
	assert.True(t, known)
	assert.True(t, active)

	require.NoError(t, s.SetPluginActive(ctx, "DivvitTracking", false))
	active, known, err = s.PluginActive(ctx, "DivvitTracking")
	require.NoError(t, err)
	assert.True(t, known)
	assert.False(t, active)

	_, known, err = s.PluginActive(ctx, "Other")
	require.NoError(t, err)
	assert.False(t, known, "state is per plugin")
}

func TestStore_DefinitionDefaultValue(t *testing.T) {
	s := NewStore(newMockDynamo(), "shop-config")
	ctx := context.Background()

	require.NoError(t, s.PutElement(ctx, Element{Name: MerchantSiteIDElement, Value: "fallback"}))

	id, err := s.MerchantSiteID(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "fallback", id)
}

func TestStore_SetValueUnknownElement(t *testing.T) {
	s := NewStore(newMockDynamo(), "shop-config")

	err := s.SetValue(context.Background(), "1", "nope", "x")
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestStore_BackendError(t *testing.T) {
	mock := newMockDynamo()
	mock.err = errors.New("throttled")
	s := NewStore(mock, "shop-config")

	_, err := s.MerchantSiteID(context.Background(), "1")
	assert.ErrorIs(t, err, mock.err)
	assert.ErrorIs(t, s.PutElement(context.Background(), Element{Name: "x"}), mock.err)
}

func TestStatic(t *testing.T) {
	id, err := Static{ID: "m"}.MerchantSiteID(context.Background(), "any")
	require.NoError(t, err)
	assert.Equal(t, "m", id)
}
