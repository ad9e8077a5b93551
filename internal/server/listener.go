package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	kcp "github.com/xtaci/kcp-go/v5"
)

type ServerListener interface {
	Accept() (net.Conn, error)
	Close() error
	Addr() net.Addr
}

func newListener(proto, addr, wsPath string) (ServerListener, error) {
	switch proto {
	case "", "tcp":
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}
		return &tcpListener{listener: listener}, nil
	case "kcp":
		listener, err := kcp.ListenWithOptions(addr, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		return &kcpListener{listener: listener}, nil
	case "ws":
		return newWSListener(addr, wsPath)
	default:
		return nil, fmt.Errorf("不支持的协议: %s", proto)
	}
}

type tcpListener struct {
	listener net.Listener
}

func (l *tcpListener) Accept() (net.Conn, error) {
	conn, err := l.listener.Accept()
	if err != nil {
		return nil, err
	}
	// 开启 TCP_NODELAY，禁用 Nagle 算法以减少延迟
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}
	return conn, nil
}

func (l *tcpListener) Close() error {
	return l.listener.Close()
}

func (l *tcpListener) Addr() net.Addr {
	return l.listener.Addr()
}

type kcpListener struct {
	listener *kcp.Listener
}

func (l *kcpListener) Accept() (net.Conn, error) {
	session, err := l.listener.AcceptKCP()
	if err != nil {
		return nil, err
	}
	// 输入走不可靠语义由冗余发送兜底，这里关掉延迟确认换取更低的延迟
	session.SetNoDelay(1, 10, 2, 1)
	session.SetStreamMode(true)
	return session, nil
}

func (l *kcpListener) Close() error {
	return l.listener.Close()
}

func (l *kcpListener) Addr() net.Addr {
	return l.listener.Addr()
}

// wsListener 把 WebSocket 连接包装成 net.Conn，复用同一套长度前缀协议
type wsListener struct {
	ln     net.Listener
	srv    *http.Server
	conns  chan net.Conn
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func newWSListener(addr, path string) (*wsListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = DefaultWSPath
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &wsListener{
		ln:     ln,
		conns:  make(chan net.Conn, 16),
		ctx:    ctx,
		cancel: cancel,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, l.serveWS)
	l.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go l.srv.Serve(ln)

	return l, nil
}

func (l *wsListener) serveWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // 开发环境跳过 Origin 检查
	})
	if err != nil {
		return
	}
	c.SetReadLimit(MaxPacketSize + 4)

	conn := websocket.NetConn(l.ctx, c, websocket.MessageBinary)
	select {
	case l.conns <- conn:
	case <-l.ctx.Done():
		c.Close(websocket.StatusGoingAway, "server shutdown")
	}
}

func (l *wsListener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-l.ctx.Done():
		return nil, net.ErrClosed
	}
}

func (l *wsListener) Close() error {
	var err error
	l.once.Do(func() {
		l.cancel()
		err = l.srv.Close()
	})
	return err
}

func (l *wsListener) Addr() net.Addr {
	return l.ln.Addr()
}
