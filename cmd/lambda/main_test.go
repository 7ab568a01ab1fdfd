package main

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/eggmove/eggmove/engine"
	"github.com/eggmove/eggmove/service"
	"github.com/eggmove/eggmove/testhelpers"
)

func TestHandleRequest(t *testing.T) {
	is := is.New(t)
	eng = engine.New(testhelpers.Field(), nil, engine.Options{})
	evt := LambdaEvent{Request: service.Request{Pokemon: "c", Move: "x", VersionGroup: "v1"}}
	doc, err := HandleRequest(context.Background(), evt)
	is.NoErr(err)
	is.True(doc.Feasible)
	is.Equal(*doc.Steps, 2)
	is.Equal(len(doc.Chains), 2)
	is.Equal(doc.Chains[0].Species, []string{"a", "b", "c"})
}

func TestHandleRequestError(t *testing.T) {
	is := is.New(t)
	eng = engine.New(testhelpers.Field(), nil, engine.Options{})
	evt := LambdaEvent{Request: service.Request{Pokemon: "c", Move: "nope", VersionGroup: "v1"}}
	_, err := HandleRequest(context.Background(), evt)
	re, ok := err.(*service.RemoteError)
	is.True(ok)
	is.Equal(re.Kind, engine.KindUnknownMove)
}
