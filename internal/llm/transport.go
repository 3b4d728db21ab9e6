package llm

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/fachebot/talk-digest/internal/config"
	"golang.org/x/net/proxy"
)

// NewHTTPClient 创建 LLM 请求使用的 HTTP 客户端，启用代理时所有连接经由 SOCKS5 转发
func NewHTTPClient(c config.Sock5Proxy) (*http.Client, error) {
	if !c.Enable {
		return &http.Client{}, nil
	}

	socks5Proxy := fmt.Sprintf("%s:%d", c.Host, c.Port)
	dialer, err := proxy.SOCKS5("tcp", socks5Proxy, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("创建SOCKS5代理失败: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = contextDialer.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return &http.Client{Transport: transport}, nil
}
