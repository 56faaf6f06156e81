package fraud

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type fakeConn struct {
	method  string
	payload []byte
	values  []*structpb.Value
	err     error
}

func (f *fakeConn) Invoke(_ context.Context, method string, args any, reply any, _ ...grpc.CallOption) error {
	f.method = method
	if req, ok := args.(*wrapperspb.BytesValue); ok {
		f.payload = req.GetValue()
	}
	if f.err != nil {
		return f.err
	}
	reply.(*structpb.ListValue).Values = f.values
	return nil
}

func (f *fakeConn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("streaming not supported")
}

func TestGRPCBackend_Predict(t *testing.T) {
	conn := &fakeConn{values: []*structpb.Value{
		structpb.NewNumberValue(0.2),
		structpb.NewNumberValue(0.3),
		structpb.NewNumberValue(0.5),
	}}
	backend := NewGRPCBackendWithConn(conn, time.Second)

	probs, err := backend.Predict(context.Background(), []float32{1.5, -2})
	if err != nil {
		t.Fatalf("Expected prediction, got %v", err)
	}
	if len(probs) != 3 || probs[2] != 0.5 {
		t.Errorf("Expected three probabilities, got %v", probs)
	}
	if conn.method != PredictMethod {
		t.Errorf("Expected method %s, got %s", PredictMethod, conn.method)
	}
	if len(conn.payload) != 8 {
		t.Fatalf("Expected 8 payload bytes, got %d", len(conn.payload))
	}
	if v := math.Float32frombits(binary.LittleEndian.Uint32(conn.payload[4:])); v != -2 {
		t.Errorf("Expected second value -2, got %f", v)
	}
}

func TestGRPCBackend_Errors(t *testing.T) {
	failing := NewGRPCBackendWithConn(&fakeConn{err: errors.New("unavailable")}, 0)
	if _, err := failing.Predict(context.Background(), []float32{1}); err == nil {
		t.Error("Expected rpc error")
	}

	nonNumeric := NewGRPCBackendWithConn(&fakeConn{values: []*structpb.Value{structpb.NewStringValue("x")}}, 0)
	if _, err := nonNumeric.Predict(context.Background(), []float32{1}); err == nil {
		t.Error("Expected error for non-numeric reply")
	}
}

func TestGRPCBackend_LazyConnect(t *testing.T) {
	backend := NewGRPCBackend("localhost:0", time.Second)
	if backend.conn != nil {
		t.Error("Expected no connection before first use")
	}
	if err := backend.Close(); err != nil {
		t.Errorf("Expected Close before use to succeed, got %v", err)
	}
}

func countingDial(dials *int32, err error) dialFunc {
	return func(addr string) (*grpc.ClientConn, error) {
		atomic.AddInt32(dials, 1)
		if err != nil {
			return nil, err
		}
		return dialInsecure(addr)
	}
}

func TestGRPCBackend_ConcurrentFirstUse(t *testing.T) {
	var dials int32
	backend := NewGRPCBackend("localhost:0", time.Second)
	backend.dial = countingDial(&dials, nil)

	const callers = 16
	conns := make([]grpc.ClientConnInterface, callers)
	errs := make([]error, callers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			conns[i], errs[i] = backend.connect()
		}(i)
	}
	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&dials); got != 1 {
		t.Errorf("Expected 1 dial, got %d", got)
	}
	for i := range conns {
		if errs[i] != nil {
			t.Fatalf("Caller %d: expected connection, got %v", i, errs[i])
		}
		if conns[i] == nil || conns[i] != conns[0] {
			t.Errorf("Caller %d: expected the shared connection", i)
		}
	}

	if err := backend.Close(); err != nil {
		t.Errorf("Expected clean close, got %v", err)
	}
}

func TestGRPCBackend_DialErrorIsKept(t *testing.T) {
	var dials int32
	backend := NewGRPCBackend("localhost:0", time.Second)
	backend.dial = countingDial(&dials, errors.New("bad target"))

	for i := 0; i < 3; i++ {
		if _, err := backend.Predict(context.Background(), []float32{1}); err == nil {
			t.Error("Expected dial error")
		}
	}
	if got := atomic.LoadInt32(&dials); got != 1 {
		t.Errorf("Expected 1 dial, got %d", got)
	}
}

func TestGRPCBackend_CloseDuringFirstUse(t *testing.T) {
	var dials int32
	backend := NewGRPCBackend("localhost:0", time.Second)
	backend.dial = countingDial(&dials, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			backend.connect()
		}()
	}
	closeErr := backend.Close()
	wg.Wait()

	if closeErr != nil {
		t.Errorf("Expected clean close, got %v", closeErr)
	}
	if got := atomic.LoadInt32(&dials); got > 1 {
		t.Errorf("Expected at most 1 dial, got %d", got)
	}
	if err := backend.Close(); err != nil {
		t.Errorf("Expected second close to succeed, got %v", err)
	}
}

func TestGRPCBackend_PredictAfterClose(t *testing.T) {
	backend := NewGRPCBackend("localhost:0", time.Second)
	if err := backend.Close(); err != nil {
		t.Fatalf("Expected clean close, got %v", err)
	}
	if _, err := backend.Predict(context.Background(), []float32{1}); !errors.Is(err, errBackendClosed) {
		t.Errorf("Expected closed backend error, got %v", err)
	}
}
