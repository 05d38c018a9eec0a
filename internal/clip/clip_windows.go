//go:build windows

package clip

// #cgo LDFLAGS: -luser32
//
// #include <windows.h>
// #include <stdlib.h>
// #include <wchar.h>
//
// static LRESULT CALLBACK clipstack_wnd_proc(HWND hwnd, UINT msg, WPARAM wp, LPARAM lp) {
//     if (msg == WM_CLIPBOARDUPDATE) {
//         PostMessage(hwnd, WM_USER + 1, 0, 0);
//         return 0;
//     }
//     return DefWindowProc(hwnd, msg, wp, lp);
// }
//
// static HWND clipstack_create_listener_window() {
//     WNDCLASS wc = {0};
//     wc.lpfnWndProc   = clipstack_wnd_proc;
//     wc.hInstance     = GetModuleHandle(NULL);
//     wc.lpszClassName = "ClipstackClipboard";
//     RegisterClass(&wc);
//     HWND hwnd = CreateWindowEx(0, "ClipstackClipboard", NULL, 0,
//         0, 0, 0, 0, HWND_MESSAGE, NULL, GetModuleHandle(NULL), NULL);
//     AddClipboardFormatListener(hwnd);
//     return hwnd;
// }
//
// static void clipstack_destroy_listener_window(HWND hwnd) {
//     RemoveClipboardFormatListener(hwnd);
//     DestroyWindow(hwnd);
// }
//
// static void clipstack_pump_messages(HWND hwnd, int* changed) {
//     MSG msg;
//     *changed = 0;
//     while (PeekMessage(&msg, hwnd, 0, 0, PM_REMOVE)) {
//         if (msg.message == WM_USER + 1) { *changed = 1; }
//         TranslateMessage(&msg);
//         DispatchMessage(&msg);
//     }
// }
//
// static void clipstack_listener_add(HWND hwnd)    { AddClipboardFormatListener(hwnd); }
// static void clipstack_listener_remove(HWND hwnd) { RemoveClipboardFormatListener(hwnd); }
//
// static int clipstack_open(HWND hwnd, DWORD* lasterr) {
//     if (OpenClipboard(hwnd)) return 1;
//     *lasterr = GetLastError();
//     return 0;
// }
//
// static wchar_t* clipstack_read_text(int* len) {
//     HANDLE h = GetClipboardData(CF_UNICODETEXT);
//     if (h == NULL) return NULL;
//     wchar_t* src = (wchar_t*)GlobalLock(h);
//     if (src == NULL) return NULL;
//     size_t n = wcslen(src);
//     wchar_t* out = (wchar_t*)malloc((n + 1) * sizeof(wchar_t));
//     if (out != NULL) {
//         wmemcpy(out, src, n + 1);
//         *len = (int)n;
//     }
//     GlobalUnlock(h);
//     return out;
// }
//
// static int clipstack_write_text(const wchar_t* text, int len, DWORD* lasterr) {
//     HGLOBAL h = GlobalAlloc(GMEM_MOVEABLE, ((size_t)len + 1) * sizeof(wchar_t));
//     if (h == NULL) { *lasterr = GetLastError(); return 0; }
//     wchar_t* dst = (wchar_t*)GlobalLock(h);
//     if (dst == NULL) { *lasterr = GetLastError(); GlobalFree(h); return 0; }
//     wmemcpy(dst, text, (size_t)len + 1);
//     GlobalUnlock(h);
//     if (SetClipboardData(CF_UNICODETEXT, h) == NULL) {
//         *lasterr = GetLastError();
//         GlobalFree(h);
//         return 0;
//     }
//     return 1;
// }
//
// static int clipstack_empty(DWORD* lasterr) {
//     if (EmptyClipboard()) return 1;
//     *lasterr = GetLastError();
//     return 0;
// }
import "C"

import (
	"fmt"
	"runtime"
	"sync"
	"time"
	"unicode/utf16"
	"unsafe"
)

// windowsDevice owns a message-only window registered with
// AddClipboardFormatListener. The window is created and pumped on one locked
// OS thread because its message queue belongs to the creating thread.
// Suspend and Resume remove and re-add the listener, so the daemon's own
// writes never come back as change events.
type windowsDevice struct {
	watchCh chan struct{}
	done    chan struct{}

	mu   sync.Mutex
	hwnd C.HWND
}

// New returns the native Windows clipboard backend.
func New() Device {
	d := &windowsDevice{
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go d.listen()
	return d
}

func (d *windowsDevice) Name() string { return "Windows clipboard" }

func (d *windowsDevice) listen() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hwnd := C.clipstack_create_listener_window()
	d.mu.Lock()
	d.hwnd = hwnd
	d.mu.Unlock()
	defer C.clipstack_destroy_listener_window(hwnd)

	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-d.done:
			return
		case <-t.C:
			var changed C.int
			C.clipstack_pump_messages(hwnd, &changed)
			if changed == 0 {
				continue
			}
			select {
			case d.watchCh <- struct{}{}:
			default:
			}
		}
	}
}

// Open acquires the clipboard for the calling goroutine, pinning it to its
// OS thread until Close: the Win32 clipboard is owned per thread.
func (d *windowsDevice) Open() (Session, error) {
	runtime.LockOSThread()
	d.mu.Lock()
	hwnd := d.hwnd
	d.mu.Unlock()

	var lastErr C.DWORD
	if C.clipstack_open(hwnd, &lastErr) == 0 {
		runtime.UnlockOSThread()
		if lastErr == C.ERROR_ACCESS_DENIED {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("OpenClipboard: system error %d", uint32(lastErr))
	}
	return &windowsSession{}, nil
}

func (d *windowsDevice) HasText() bool {
	return C.IsClipboardFormatAvailable(C.CF_UNICODETEXT) != 0
}

func (d *windowsDevice) Watch() <-chan struct{} { return d.watchCh }

func (d *windowsDevice) Suspend() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hwnd != nil {
		C.clipstack_listener_remove(d.hwnd)
	}
}

func (d *windowsDevice) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hwnd != nil {
		C.clipstack_listener_add(d.hwnd)
	}
}

func (d *windowsDevice) Close() { close(d.done) }

type windowsSession struct {
	closed bool
}

func (s *windowsSession) Read() ([]byte, bool) {
	var n C.int
	p := C.clipstack_read_text(&n)
	if p == nil {
		return nil, false
	}
	defer C.free(unsafe.Pointer(p))
	if n == 0 {
		return nil, false
	}
	u := unsafe.Slice((*uint16)(unsafe.Pointer(p)), int(n))
	return []byte(string(utf16.Decode(u))), true
}

func (s *windowsSession) Clear() error {
	var lastErr C.DWORD
	if C.clipstack_empty(&lastErr) == 0 {
		return fmt.Errorf("EmptyClipboard: system error %d", uint32(lastErr))
	}
	return nil
}

func (s *windowsSession) Write(text []byte) error {
	u := utf16.Encode([]rune(string(text)))
	u = append(u, 0)
	var lastErr C.DWORD
	ok := C.clipstack_write_text(
		(*C.wchar_t)(unsafe.Pointer(&u[0])), C.int(len(u)-1), &lastErr)
	if ok == 0 {
		return fmt.Errorf("SetClipboardData: system error %d", uint32(lastErr))
	}
	return nil
}

func (s *windowsSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	C.CloseClipboard()
	runtime.UnlockOSThread()
	return nil
}
