//go:build windows

package platform

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetForeground    = user32.NewProc("GetForegroundWindow")
	procSetForeground    = user32.NewProc("SetForegroundWindow")
	procIsWindow         = user32.NewProc("IsWindow")
	procSendInput        = user32.NewProc("SendInput")
)

const (
	vkControl   = 0x11
	vkV         = 0x56
	scanControl = 0x1D
	scanV       = 0x2F

	inputKeyboard  = 1
	keyeventfKeyup = 0x0002
)

// keybdInput mirrors KEYBDINPUT. The trailing padding makes the INPUT
// union large enough to hold MOUSEINPUT on amd64.
type keybdInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
	_           [8]byte
}

type input struct {
	inputType uint32
	_         uint32 // alignment before the union
	ki        keybdInput
}

func foregroundWindow() Window {
	h, _, _ := procGetForeground.Call()
	return Window(h)
}

func windowExists(w Window) bool {
	r, _, _ := procIsWindow.Call(uintptr(w))
	return r != 0
}

func focusWindow(w Window) bool {
	r, _, _ := procSetForeground.Call(uintptr(w))
	return r != 0
}

func keyInput(vk, scan uint16, flags uint32) input {
	return input{
		inputType: inputKeyboard,
		ki:        keybdInput{wVk: vk, wScan: scan, dwFlags: flags},
	}
}

// sendPaste synthesizes Ctrl+V with SendInput. Scan codes are included
// alongside virtual keys so targets reading either field see the stroke.
func sendPaste() error {
	inputs := []input{
		keyInput(vkControl, scanControl, 0),
		keyInput(vkV, scanV, 0),
		keyInput(vkV, scanV, keyeventfKeyup),
		keyInput(vkControl, scanControl, keyeventfKeyup),
	}
	n, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if int(n) != len(inputs) {
		return fmt.Errorf("SendInput injected %d of %d events: %w", n, len(inputs), err)
	}
	return nil
}
