// Command client is a minimal interactive chat client: it connects over
// TCP, optionally logs in, then pumps stdin to the server and server lines
// to stdout.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"

	"chatwire/pkg/wire"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:4000", "server address")
	user := flag.String("user", "", "log in with this username on connect")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	line := wire.NewTCPConn(conn, wire.DefaultMaxLineLen)
	fmt.Printf("connected to %s\n", *addr)

	if *user != "" {
		if err := line.WriteLine("LOGIN " + *user); err != nil {
			fmt.Fprintf(os.Stderr, "login: %v\n", err)
			os.Exit(1)
		}
	}

	// Server -> stdout until the connection drops.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			msg, err := line.ReadLine()
			if err != nil {
				fmt.Println("disconnected")
				return
			}
			fmt.Println(msg)
		}
	}()

	// stdin -> server until EOF or the reader stops.
	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		select {
		case <-done:
			return
		default:
		}
		if err := line.WriteLine(stdin.Text()); err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
			return
		}
	}
	<-done
}
