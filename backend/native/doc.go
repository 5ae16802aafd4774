// Package native materializes a compiled frame on a wgpu HAL device.
//
// Device answers the size and alignment queries the transient allocator
// needs, keeps one heap buffer large enough for the frame's peak transient
// usage and one staging buffer for the frame's uploads, and flushes the
// upload payloads recorded by pass callbacks into the staging buffer.
//
//	dev, err := native.NewFromProvider(app.GPUContextProvider())
//	if err != nil {
//	    return err
//	}
//	defer dev.Destroy()
//
//	m := framegraph.NewManager(dev)
//	// declare passes, m.Compile(backbuffer)
//	passes, _ := m.Execute()
//	if err := dev.Prepare(m.Resources()); err != nil {
//	    return err
//	}
//	stats, err := dev.Flush(m.Resources(), passes)
package native
