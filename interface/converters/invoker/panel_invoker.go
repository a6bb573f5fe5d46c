package invoker

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/panelbridge/inception"
	"github.com/shimmeringbee/panelbridge/spc"
	"github.com/shimmeringbee/panelbridge/state"
	"github.com/tidwall/gjson"
	"time"
)

type ActionError string

func (e ActionError) Error() string {
	return string(e)
}

const PanelNotFound = ActionError("panel not found")
const EntityNotFound = ActionError("entity not found on panel")
const ActionUserError = ActionError("user provided bad data")

const DefaultActionTimeout = 10 * time.Second

// ChangeAreaMode moves an area on a named SPC panel into the mode named.
func ChangeAreaMode(ctx context.Context, pm state.PanelMapper, panel string, areaID string, modeName string) (gjson.Result, error) {
	mode, err := spc.ParseAreaMode(modeName)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ActionUserError, err)
	}

	gw, found := pm.SPCGateway(panel)
	if !found {
		return gjson.Result{}, PanelNotFound
	}

	if _, found := gw.Area(areaID); !found {
		return gjson.Result{}, EntityNotFound
	}

	invokeCtx, cancel := context.WithTimeout(ctx, DefaultActionTimeout)
	defer cancel()

	return gw.ChangeMode(invokeCtx, areaID, mode)
}

// QueryInception fetches an entity, or the summary if id is empty, from a named Inception panel.
func QueryInception(ctx context.Context, pm state.PanelMapper, panel string, kindName string, id string) (gjson.Result, error) {
	kind, err := inception.ParseKind(kindName)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ActionUserError, err)
	}

	p, found := pm.InceptionPanel(panel)
	if !found {
		return gjson.Result{}, PanelNotFound
	}

	return withLogin(ctx, p, func(ctx context.Context) (gjson.Result, error) {
		return p.Get(ctx, kind, id)
	})
}

// InvokeInceptionCommand performs a control activity against an entity on a named Inception panel.
func InvokeInceptionCommand(ctx context.Context, pm state.PanelMapper, panel string, kindName string, id string, commandName string) (gjson.Result, error) {
	kind, err := inception.ParseKind(kindName)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ActionUserError, err)
	}

	command, err := inception.ParseCommand(kind, commandName)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ActionUserError, err)
	}

	p, found := pm.InceptionPanel(panel)
	if !found {
		return gjson.Result{}, PanelNotFound
	}

	return withLogin(ctx, p, func(ctx context.Context) (gjson.Result, error) {
		return p.Control(ctx, id, command)
	})
}

// withLogin performs the operation, logging in and retrying once if the panel rejected the session.
func withLogin(ctx context.Context, p state.InceptionPanel, op func(context.Context) (gjson.Result, error)) (gjson.Result, error) {
	invokeCtx, cancel := context.WithTimeout(ctx, DefaultActionTimeout)
	defer cancel()

	result, err := op(invokeCtx)
	if !errors.Is(err, inception.ErrUnauthorized) {
		return result, err
	}

	if err := p.Login(invokeCtx); err != nil {
		return gjson.Result{}, err
	}

	return op(invokeCtx)
}
