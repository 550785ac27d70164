// Package session holds the client-side authentication state: who is logged
// in, the bearer credential, and the lifecycle that keeps the persisted
// credential, the in-memory credential and the HTTP client's Authorization
// header in agreement.
//
// A Manager is created per process and passed to whatever needs it:
//
//	api := client.New("https://campus.example.com/api")
//	mgr := session.New(api, auth.NewKeyringStore(api.BaseURL()))
//	mgr.Bootstrap(ctx)
//
//	if res := mgr.Login(ctx, email, password); !res.Success {
//		fmt.Println(res.Error)
//	}
//
// All state changes go through a pure reducer over a closed set of actions.
// Observers registered with Subscribe see every transition in order,
// including the momentary Failed status of a rejected login.
package session
