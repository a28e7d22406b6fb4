package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds a single script execution.
const DefaultTimeout = 5 * time.Second

// JSEngine runs JavaScript with goja.
type JSEngine struct {
	timeout time.Duration
}

type JSEngineOption func(*JSEngine)

// WithScriptTimeout sets the execution limit. Zero disables it.
func WithScriptTimeout(d time.Duration) JSEngineOption {
	return func(e *JSEngine) {
		e.timeout = d
	}
}

func NewJSEngine(opts ...JSEngineOption) *JSEngine {
	e := &JSEngine{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute evaluates source inside a function scope on a new runtime.
func (e *JSEngine) Execute(ctx context.Context, source string, sc *Context) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	vm := goja.New()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script panic: %v", r)
		}
	}()

	if err := bind(vm, sc); err != nil {
		return err
	}

	if e.timeout > 0 {
		timer := time.AfterFunc(e.timeout, func() {
			vm.Interrupt(ErrTimeout)
		})
		defer timer.Stop()
	}

	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	_, err = vm.RunScript(string(sc.Phase)+".js", "(function() {\n"+source+"\n})();")
	return unwrapInterrupt(err)
}

func unwrapInterrupt(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return cause
		}
	}
	return err
}

func bind(vm *goja.Runtime, sc *Context) error {
	get := func(call goja.FunctionCall) goja.Value {
		v, ok := sc.Host.Get(call.Argument(0).String())
		if !ok {
			return goja.Undefined()
		}
		return vm.ToValue(v)
	}

	set := func(call goja.FunctionCall) goja.Value {
		key, value := call.Argument(0), call.Argument(1)
		if isNothing(key) {
			panic(vm.NewTypeError("environment variable name is required"))
		}
		if isNothing(value) {
			panic(vm.NewTypeError(fmt.Sprintf("environment variable %q: value is %s", key.String(), value.String())))
		}
		sc.Host.Set(key.String(), value.String())
		return goja.Undefined()
	}

	has := func(call goja.FunctionCall) goja.Value {
		_, ok := sc.Host.Get(call.Argument(0).String())
		return vm.ToValue(ok)
	}

	postman := vm.NewObject()
	environment := vm.NewObject()
	pm := vm.NewObject()
	for _, b := range []struct {
		obj  *goja.Object
		name string
		fn   func(goja.FunctionCall) goja.Value
	}{
		{postman, "getEnvironmentVariable", get},
		{postman, "setEnvironmentVariable", set},
		{environment, "get", get},
		{environment, "set", set},
		{environment, "has", has},
	} {
		if err := b.obj.Set(b.name, b.fn); err != nil {
			return err
		}
	}
	if err := pm.Set("environment", environment); err != nil {
		return err
	}

	if sc.Response != nil {
		if err := bindResponse(vm, pm, sc.Response); err != nil {
			return err
		}
	}

	globals := map[string]any{
		"getEnvironmentVariable": get,
		"setEnvironmentVariable": set,
		"postman":                postman,
		"pm":                     pm,
		"_":                      helperObject(vm),
		"console":                consoleObject(vm, sc),
	}
	for name, v := range globals {
		if err := vm.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

func bindResponse(vm *goja.Runtime, pm *goja.Object, resp *Response) error {
	global := vm.GlobalObject()
	readOnly := map[string]goja.Value{
		"responseBody":    vm.ToValue(resp.Body),
		"responseText":    vm.ToValue(resp.Text),
		"responseHeaders": vm.ToValue(resp.Headers),
		"responseCode":    vm.ToValue(map[string]any{"code": resp.Code, "name": resp.Status}),
	}
	for name, v := range readOnly {
		if err := global.DefineDataProperty(name, v, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return err
		}
	}

	response := vm.NewObject()
	fields := map[string]any{
		"code":    resp.Code,
		"status":  resp.Status,
		"headers": resp.Headers,
		"text": func(goja.FunctionCall) goja.Value {
			return vm.ToValue(resp.Text)
		},
		"json": func(goja.FunctionCall) goja.Value {
			if !gjson.Valid(resp.Text) {
				panic(vm.NewTypeError("response body is not valid JSON"))
			}
			return vm.ToValue(gjson.Parse(resp.Text).Value())
		},
	}
	for name, v := range fields {
		if err := response.Set(name, v); err != nil {
			return err
		}
	}
	return pm.Set("response", response)
}

func helperObject(vm *goja.Runtime) *goja.Object {
	obj := vm.NewObject()
	_ = obj.Set("random", func(call goja.FunctionCall) goja.Value {
		lo, hi := call.Argument(0).ToInteger(), call.Argument(1).ToInteger()
		if len(call.Arguments) < 2 {
			lo, hi = 0, lo
		}
		return vm.ToValue(randomInt(lo, hi))
	})
	_ = obj.Set("uuid", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(newUUID())
	})
	_ = obj.Set("randomString", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(randomString(int(call.Argument(0).ToInteger())))
	})
	_ = obj.Set("now", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(isoNow())
	})
	_ = obj.Set("timestamp", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(unixNow())
	})
	_ = obj.Set("base64", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(base64Encode(call.Argument(0).String()))
	})
	_ = obj.Set("base64Decode", func(call goja.FunctionCall) goja.Value {
		decoded, err := base64Decode(call.Argument(0).String())
		if err != nil {
			panic(vm.NewTypeError(err.Error()))
		}
		return vm.ToValue(decoded)
	})
	return obj
}

func consoleObject(vm *goja.Runtime, sc *Context) *goja.Object {
	logger := sc.logger()
	emit := map[string]func(string, ...any){
		"log":   logger.Info,
		"info":  logger.Info,
		"debug": logger.Debug,
		"warn":  logger.Warn,
		"error": logger.Error,
	}

	obj := vm.NewObject()
	for name, fn := range emit {
		_ = obj.Set(name, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			fn(strings.Join(parts, " "))
			return goja.Undefined()
		})
	}
	return obj
}

func isNothing(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}
