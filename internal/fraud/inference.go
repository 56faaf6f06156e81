package fraud

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// PredictMethod is the full gRPC method name served by the model server.
// The request is the little-endian float32 tensor wrapped in BytesValue; the
// reply is a ListValue of three numbers.
const PredictMethod = "/evidence.inference.v1.FraudModel/Predict"

var errBackendClosed = errors.New("inference backend closed")

type dialFunc func(addr string) (*grpc.ClientConn, error)

func dialInsecure(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// GRPCBackend calls a remote model server. The connection is created on
// first use and shared by all callers afterwards.
type GRPCBackend struct {
	addr    string
	timeout time.Duration
	dial    dialFunc

	once sync.Once
	conn grpc.ClientConnInterface
	err  error

	closer    interface{ Close() error }
	closeOnce sync.Once
	closeErr  error
}

// NewGRPCBackend creates a backend for addr without connecting
func NewGRPCBackend(addr string, timeout time.Duration) *GRPCBackend {
	return &GRPCBackend{addr: addr, timeout: timeout, dial: dialInsecure}
}

// NewGRPCBackendWithConn creates a backend over an existing connection.
// Used for testing without a model server.
func NewGRPCBackendWithConn(conn grpc.ClientConnInterface, timeout time.Duration) *GRPCBackend {
	b := &GRPCBackend{timeout: timeout, conn: conn}
	b.once.Do(func() {})
	return b
}

func (b *GRPCBackend) connect() (grpc.ClientConnInterface, error) {
	b.once.Do(func() {
		conn, err := b.dial(b.addr)
		if err != nil {
			b.err = fmt.Errorf("grpc dial %s: %w", b.addr, err)
			return
		}
		b.conn = conn
		b.closer = conn
	})
	return b.conn, b.err
}

// Predict sends the tensor and validates the shape of the reply
func (b *GRPCBackend) Predict(ctx context.Context, tensor []float32) ([]float64, error) {
	conn, err := b.connect()
	if err != nil {
		return nil, err
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	payload := make([]byte, 4*len(tensor))
	for i, v := range tensor {
		binary.LittleEndian.PutUint32(payload[4*i:], math.Float32bits(v))
	}

	reply := &structpb.ListValue{}
	if err := conn.Invoke(ctx, PredictMethod, wrapperspb.Bytes(payload), reply); err != nil {
		return nil, fmt.Errorf("predict rpc: %w", err)
	}

	probs := make([]float64, 0, len(reply.GetValues()))
	for i, v := range reply.GetValues() {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("prediction %d is not a number", i)
		}
		probs = append(probs, n.NumberValue)
	}
	return probs, nil
}

// Close releases the connection if one was opened. It waits for a
// connection attempt in progress; later calls to Predict fail.
func (b *GRPCBackend) Close() error {
	b.closeOnce.Do(func() {
		b.once.Do(func() { b.err = errBackendClosed })
		if b.closer != nil {
			b.closeErr = b.closer.Close()
		}
	})
	return b.closeErr
}
