package interp

import "testing"

func TestChannel_SendRecvRoundTrip(t *testing.T) {
	sender, receiver := MakeChannelPair()
	if sender.Type() != "Sender" || receiver.Type() != "Receiver" {
		t.Fatalf("unexpected channel end types: %s / %s", sender.Type(), receiver.Type())
	}

	done := make(chan Value, 1)
	go func() { done <- receiver.Recv() }()

	sendResult := sender.Send(&IntValue{Value: 42})
	ok, isOk := sendResult.(*ConstructorValue)
	if !isOk || ok.CtorName != "Ok" {
		t.Fatalf("expected Ok(Unit) from Send, got %v", sendResult)
	}

	recvResult := <-done
	ctor, ok2 := recvResult.(*ConstructorValue)
	if !ok2 || ctor.CtorName != "Ok" {
		t.Fatalf("expected Ok(42) from Recv, got %v", recvResult)
	}
	if iv := ctor.Fields[0].(*IntValue); iv.Value != 42 {
		t.Fatalf("expected 42, got %d", iv.Value)
	}
}

func TestChannel_RecvAfterCloseReturnsErr(t *testing.T) {
	sender, receiver := MakeChannelPair()
	sender.Close()

	result := receiver.Recv()
	ctor, ok := result.(*ConstructorValue)
	if !ok || ctor.CtorName != "Err" {
		t.Fatalf("expected Err(Closed) after Close, got %v", result)
	}
}

func TestChannel_SendAfterCloseReturnsErr(t *testing.T) {
	sender, _ := MakeChannelPair()
	sender.Close()
	result := sender.Send(&IntValue{Value: 1})
	ctor, ok := result.(*ConstructorValue)
	if !ok || ctor.CtorName != "Err" {
		t.Fatalf("expected Err(Closed) sending on a closed channel, got %v", result)
	}
}
