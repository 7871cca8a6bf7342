package metadata

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// LuaStore resolves entity metadata by executing a Lua script.
// The script must define a function called 'lookup' that takes an entity ID
// and returns a metadata table, or nil when the entity is unknown.
//
// Example:
//
//	function lookup(entity_id)
//	  if entity_id == "https://sp.example.org" then
//	    return {
//	      display_name = "Example SP",
//	      attributes = {"mail", "eduPersonPrincipalName"},
//	    }
//	  end
//	  return nil
//	end
type LuaStore struct {
	name   string
	script string
}

// LuaStoreConfig configures a Lua metadata store
type LuaStoreConfig struct {
	// Name identifies this store in diagnostics
	Name string

	// Script is the Lua script defining the lookup function
	Script string
}

// NewLuaStore creates a Lua metadata store, validating the script up front
func NewLuaStore(config LuaStoreConfig) (*LuaStore, error) {
	if config.Script == "" {
		return nil, fmt.Errorf("script is required")
	}
	if config.Name == "" {
		config.Name = "lua"
	}

	// Validate that the script loads and defines a lookup function
	L := lua.NewState()
	defer L.Close()

	if err := L.DoString(config.Script); err != nil {
		return nil, fmt.Errorf("failed to load script: %w", err)
	}

	lookupFunc := L.GetGlobal("lookup")
	if lookupFunc.Type() != lua.LTFunction {
		return nil, fmt.Errorf("script must define a 'lookup' function")
	}

	return &LuaStore{
		name:   config.Name,
		script: config.Script,
	}, nil
}

// Name returns the store name
func (s *LuaStore) Name() string {
	return s.name
}

// Lookup implements Store by executing the script's lookup function.
// A fresh Lua state is created per call so concurrent lookups are independent.
func (s *LuaStore) Lookup(ctx context.Context, entityID string) (*Entity, error) {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	if err := L.DoString(s.script); err != nil {
		return nil, fmt.Errorf("failed to load script: %w", err)
	}

	lookupFunc := L.GetGlobal("lookup")
	if err := L.CallByParam(lua.P{
		Fn:      lookupFunc,
		NRet:    1,
		Protect: true,
	}, lua.LString(entityID)); err != nil {
		return nil, fmt.Errorf("script execution failed: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)

	if ret.Type() == lua.LTNil {
		return nil, ErrNotFound
	}

	table, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("lookup function must return a table or nil, got %s", ret.Type())
	}

	return luaTableToEntity(entityID, table)
}

// luaTableToEntity converts the script's return value into an Entity
func luaTableToEntity(entityID string, table *lua.LTable) (*Entity, error) {
	entity := &Entity{EntityID: entityID}

	if id := table.RawGetString("entity_id"); id.Type() == lua.LTString {
		entity.EntityID = string(id.(lua.LString))
	}
	if name := table.RawGetString("display_name"); name.Type() == lua.LTString {
		entity.DisplayName = string(name.(lua.LString))
	}

	attrsValue := table.RawGetString("attributes")
	switch attrs := attrsValue.(type) {
	case *lua.LNilType:
		// Field absent: entity carries no attribute policy
	case *lua.LTable:
		// Present, possibly empty
		entity.Attributes = []string{}
		var convErr error
		attrs.ForEach(func(_, value lua.LValue) {
			s, ok := value.(lua.LString)
			if !ok {
				convErr = fmt.Errorf("attributes must be a list of strings, got %s", value.Type())
				return
			}
			entity.Attributes = append(entity.Attributes, string(s))
		})
		if convErr != nil {
			return nil, convErr
		}
	default:
		return nil, fmt.Errorf("attributes must be a table, got %s", attrsValue.Type())
	}

	return entity, nil
}
