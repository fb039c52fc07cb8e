package cbuffer_test

import (
	"fmt"
	"sync"

	"github.com/hcyrs/cbuffer"
)

func Example() {
	sender, receiver, err := cbuffer.Channel(cbuffer.Buf64M)
	if err != nil {
		fmt.Printf("Channel error: %v\n", err)
		return
	}
	defer sender.Close()
	defer receiver.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	pushed := make(chan struct{})

	// Producer goroutine
	go func() {
		defer wg.Done()
		data := []byte("Hello from producer!")
		sender.Push(data)
		fmt.Printf("Pushed %d bytes\n", len(data))
		close(pushed)
	}()

	// Consumer goroutine
	go func() {
		defer wg.Done()
		receiver.Pop(func(payload []byte) {
			<-pushed // print after the producer's line, keeping the output order fixed
			fmt.Printf("Popped %d bytes: %s\n", len(payload), payload)
		})
	}()

	wg.Wait()
	// Output:
	// Pushed 20 bytes
	// Popped 20 bytes: Hello from producer!
}

func ExampleChannel() {
	sender, receiver, err := cbuffer.Channel(cbuffer.Buf128M)
	if err != nil {
		fmt.Printf("Channel error: %v\n", err)
		return
	}
	defer sender.Close()
	defer receiver.Close()

	fmt.Printf("Ring size: %d bytes\n", sender.Size())
	fmt.Printf("Empty: %v\n", receiver.IsEmpty())
	// Output:
	// Ring size: 134217728 bytes
	// Empty: true
}

func ExampleSender_TryPush() {
	sender, receiver, err := cbuffer.Channel(cbuffer.Buf64M)
	if err != nil {
		fmt.Printf("Channel error: %v\n", err)
		return
	}
	defer sender.Close()
	defer receiver.Close()

	ok := sender.TryPush([]byte("Hello, World!"))
	fmt.Printf("Pushed: %v\n", ok)
	fmt.Printf("Bytes used: %d\n", receiver.Used())
	// Output:
	// Pushed: true
	// Bytes used: 17
}

func ExampleReceiver_TryPop() {
	sender, receiver, err := cbuffer.Channel(cbuffer.Buf64M)
	if err != nil {
		fmt.Printf("Channel error: %v\n", err)
		return
	}
	defer sender.Close()
	defer receiver.Close()

	sender.TryPush([]byte("Hello!"))

	receiver.TryPop(func(payload []byte) {
		fmt.Printf("Popped %d bytes: %s\n", len(payload), payload)
	})
	// Output:
	// Popped 6 bytes: Hello!
}

func Example_zeroCopyConsume() {
	sender, receiver, err := cbuffer.Channel(cbuffer.Buf64M)
	if err != nil {
		fmt.Printf("Channel error: %v\n", err)
		return
	}
	defer sender.Close()
	defer receiver.Close()

	sender.TryPush([]byte("frame one"))
	sender.TryPush([]byte("frame two"))

	for !receiver.IsEmpty() {
		receiver.TryPop(func(payload []byte) {
			// payload is a slice borrowed from the ring's Region: it must
			// be consumed (or copied) entirely within this callback.
			fmt.Println(string(payload))
		})
	}
	// Output:
	// frame one
	// frame two
}
