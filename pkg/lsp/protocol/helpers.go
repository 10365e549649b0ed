package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
)

// type Callbacker interface {
// 	Callback(ctx context.Context, method string, params interface{}) (*jrpc2.Response, error)
// 	Notify(ctx context.Context, method string, params interface{}) error
// }

func createServerCallBack[I any, O any](ctx context.Context, client *jrpc2.Server, method string, params *I, result *O) error {
	res, err := client.Callback(ctx, method, params)
	if err != nil {
		return err
	}

	if result != nil {
		err = res.UnmarshalResult(result)
		return err
	}

	return nil
}

func createServerEmptyResultCallBack[I any](ctx context.Context, client *jrpc2.Server, method string, params *I) error {
	_, err := client.Callback(ctx, method, params)
	return err
}

func createServerEmptyCallBack(ctx context.Context, client *jrpc2.Server, method string) error {
	_, err := client.Callback(ctx, method, nil)
	return err
}

func createServerEmptyParamsCallBack[O any](ctx context.Context, client *jrpc2.Server, method string, result *O) error {
	res, err := client.Callback(ctx, method, nil)
	if err != nil {
		return err
	}

	if result != nil {
		err = res.UnmarshalResult(result)
		return err
	}

	return nil
}

func createServerNotifyBack[I any](ctx context.Context, client *jrpc2.Server, method string, params *I) error {
	err := client.Notify(ctx, method, params)
	return err
}

func createServerEmptyNotifyBack(ctx context.Context, client *jrpc2.Server, method string) error {
	err := client.Notify(ctx, method, nil)
	return err
}

func createClientCall[I any, O any](ctx context.Context, client *jrpc2.Client, method string, params *I, result *O) error {
	res, err := client.Call(ctx, method, params)
	if err != nil {
		return err
	}

	if result != nil {
		err = res.UnmarshalResult(result)
		return err
	}

	return nil
}

func createClientEmptyResultCall[I any](ctx context.Context, client *jrpc2.Client, method string, params *I) error {
	_, err := client.Call(ctx, method, params)
	return err
}

func createClientEmptyCall(ctx context.Context, client *jrpc2.Client, method string) error {
	_, err := client.Call(ctx, method, nil)
	return err
}

func createClientEmptyParamsCall[O any](ctx context.Context, client *jrpc2.Client, method string, result *O) error {
	res, err := client.Call(ctx, method, nil)
	if err != nil {
		return err
	}

	if result != nil {
		err = res.UnmarshalResult(result)
		return err
	}

	return nil
}

func createClientNotify[I any](ctx context.Context, client *jrpc2.Client, method string, params *I) error {
	err := client.Notify(ctx, method, params)
	return err
}

func createClientEmptyNotify(ctx context.Context, client *jrpc2.Client, method string) error {
	err := client.Notify(ctx, method, nil)
	return err
}
